package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfbag/storefront/internal/cart"
	"github.com/lfbag/storefront/pkg/backend"
	"github.com/lfbag/storefront/pkg/db/models"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/mercadopago"
	"github.com/lfbag/storefront/pkg/types"
)

type stubCart struct {
	items   []cart.Item
	cleared int
}

func (s *stubCart) Get(context.Context, string) (*cart.Snapshot, error) {
	store := cart.NewStore(s.items)
	return &cart.Snapshot{Items: store.Items(), Count: store.Count(), Subtotal: store.Subtotal()}, nil
}

func (s *stubCart) Clear(context.Context, string) (*cart.Snapshot, error) {
	s.cleared++
	s.items = nil
	return &cart.Snapshot{Items: []cart.Item{}}, nil
}

type stubBackend struct {
	mu         sync.Mutex
	cartID     string
	cartErr    error
	cartCalls  int
	result     *backend.PaymentResult
	payErr     error
	payCalls   int
	lastKey    string
	lastReq    backend.PaymentRequest
	publicKey  string
	publicErr  error
	beforeSend func()
}

func (s *stubBackend) CreateCart(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartCalls++
	return s.cartID, s.cartErr
}

func (s *stubBackend) ProcessPayment(_ context.Context, key string, payload backend.PaymentRequest) (*backend.PaymentResult, error) {
	if s.beforeSend != nil {
		s.beforeSend()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payCalls++
	s.lastKey = key
	s.lastReq = payload
	return s.result, s.payErr
}

func (s *stubBackend) PublicKey(context.Context) (string, error) {
	return s.publicKey, s.publicErr
}

type stubAddress struct {
	addr *types.ShippingAddress
	err  error
}

func (s stubAddress) Lookup(context.Context, string) (*types.ShippingAddress, error) {
	return s.addr, s.err
}

type stubGateway struct {
	publicKey  string
	method     *mercadopago.PaymentMethod
	methodErr  error
	issuers    []mercadopago.Issuer
	costs      []mercadopago.PayerCost
	costsErr   error
	payment    *mercadopago.PaymentInfo
	paymentErr error
}

func (s stubGateway) PublicKey() string { return s.publicKey }

func (s stubGateway) SearchPaymentMethod(context.Context, string) (*mercadopago.PaymentMethod, error) {
	return s.method, s.methodErr
}

func (s stubGateway) Issuers(context.Context, string, string) ([]mercadopago.Issuer, error) {
	return s.issuers, nil
}

func (s stubGateway) Installments(context.Context, decimal.Decimal, string, string) ([]mercadopago.PayerCost, error) {
	return s.costs, s.costsErr
}

func (s stubGateway) Payment(context.Context, string) (*mercadopago.PaymentInfo, error) {
	return s.payment, s.paymentErr
}

type memoryAttempts struct {
	mu       sync.Mutex
	attempts []models.CheckoutAttempt
}

func (m *memoryAttempts) Record(_ context.Context, a *models.CheckoutAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *memoryAttempts) ListBySession(_ context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CheckoutAttempt
	for i := len(m.attempts) - 1; i >= 0; i-- {
		if m.attempts[i].SessionID == sessionID {
			out = append(out, m.attempts[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type fixture struct {
	cart     *stubCart
	backend  *stubBackend
	gateway  stubGateway
	address  stubAddress
	kv       *memoryKV
	attempts *memoryAttempts
	tokens   CardTokenizer
}

func newFixture() *fixture {
	return &fixture{
		cart: &stubCart{items: []cart.Item{
			{ID: "1", Titulo: "Bolsa Tote", Preco: decimal.RequireFromString("150.00"), Quantidade: 1},
			{ID: "2", Titulo: "Clutch", Preco: decimal.RequireFromString("50.00"), Quantidade: 2},
		}},
		backend: &stubBackend{
			cartID: "77",
			result: &backend.PaymentResult{Status: enums.PaymentStatusApproved, PaymentID: "123", OrderID: "9"},
		},
		kv:       newMemoryKV(),
		attempts: &memoryAttempts{},
	}
}

func (f *fixture) service(t *testing.T) Service {
	t.Helper()
	locker, err := NewRedisLocker(f.kv, time.Minute)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Cart:        f.cart,
		Backend:     f.backend,
		Address:     f.address,
		Gateway:     f.gateway,
		Tokenizer:   f.tokens,
		CartIDs:     NewRedisCartIDStore(f.kv, time.Hour),
		Locker:      locker,
		Attempts:    f.attempts,
		ExpressFee:  decimal.RequireFromString("20.00"),
		Description: "Pedido LF Bag",
	})
	require.NoError(t, err)
	return svc
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, err.Error())
	require.Equal(t, code, typed.Code(), err.Error())
	return typed
}

func TestSubmitInvalidFormMakesNoCalls(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	form := validCardForm()
	form.DocumentNumber = "123.456.789-00"
	res, err := svc.Submit(context.Background(), "s1", form)

	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, enums.CheckoutStateEditing, res.State)
	assert.Zero(t, f.backend.payCalls)
	assert.Zero(t, f.backend.cartCalls)
	assert.Empty(t, f.kv.values)
	assert.Empty(t, f.attempts.attempts)
}

func TestSubmitExpressTotalsAndPayload(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	form := validCardForm()
	form.Delivery = enums.DeliveryMethodExpress
	res, err := svc.Submit(context.Background(), "s1", form)
	require.NoError(t, err)

	assert.True(t, res.Totals.Subtotal.Equal(decimal.RequireFromString("250")))
	assert.True(t, res.Totals.Total.Equal(decimal.RequireFromString("270")))

	req := f.backend.lastReq
	assert.True(t, req.TransactionAmount.Equal(decimal.RequireFromString("270")))
	assert.True(t, req.ShippingFee.Equal(decimal.RequireFromString("20")))
	assert.Equal(t, "tok_123", req.Token)
	assert.Equal(t, 3, req.Installments)
	assert.Equal(t, "visa", req.PaymentMethodID)
	assert.Equal(t, "77", req.CartID)
	assert.Equal(t, "Maria", req.Payer.FirstName)
	assert.Equal(t, "da Silva", req.Payer.LastName)
	assert.Equal(t, "52998224725", req.Payer.Identification.Number)
	assert.Equal(t, "50030230", req.ShippingAddress.ZipCode)
	assert.Equal(t, "PE", req.ShippingAddress.FederalUnit)
	assert.Equal(t, []backend.OrderItem{{ProductID: "1", Quantity: 1}, {ProductID: "2", Quantity: 2}}, req.Items)
	assert.NotEmpty(t, f.backend.lastKey)
}

func TestSubmitApprovedAndPendingClearCart(t *testing.T) {
	for _, status := range []enums.PaymentStatus{enums.PaymentStatusApproved, enums.PaymentStatusPending} {
		t.Run(status.String(), func(t *testing.T) {
			f := newFixture()
			f.backend.result = &backend.PaymentResult{Status: status, PaymentID: "555", QRCode: "000201"}
			svc := f.service(t)

			res, err := svc.Submit(context.Background(), "s1", validPixForm())
			require.NoError(t, err)
			assert.Equal(t, status, res.Status)
			assert.Equal(t, enums.CheckoutStateCompleted, res.State)
			assert.Equal(t, []enums.CheckoutState{
				enums.CheckoutStateEditing,
				enums.CheckoutStateValidating,
				enums.CheckoutStateSubmitting,
				enums.CheckoutStateCompleted,
			}, res.Trail)
			assert.Equal(t, 1, f.cart.cleared)
			assert.Equal(t, "pix", f.backend.lastReq.PaymentMethodID)
			assert.Empty(t, f.backend.lastReq.Token)

			require.Len(t, f.attempts.attempts, 1)
			assert.Equal(t, status, f.attempts.attempts[0].Status)
			assert.Equal(t, enums.CheckoutStateCompleted, f.attempts.attempts[0].FinalState)
			assert.Equal(t, "555", f.attempts.attempts[0].PaymentID)
		})
	}
}

func TestSubmitRejectedKeepsCart(t *testing.T) {
	f := newFixture()
	f.backend.result = &backend.PaymentResult{Status: enums.PaymentStatusRejected, StatusDetail: "cc_rejected_insufficient_amount", Message: "insufficient funds"}
	svc := f.service(t)

	res, err := svc.Submit(context.Background(), "s1", validCardForm())
	typed := requireCode(t, err, pkgerrors.CodePaymentRejected)
	assert.Equal(t, "insufficient funds", typed.Message())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "cc_rejected_insufficient_amount", details["status_detail"])
	assert.Equal(t, enums.CheckoutStateEditing, res.State)
	assert.Zero(t, f.cart.cleared)
	require.Len(t, f.attempts.attempts, 1)
	assert.Equal(t, enums.PaymentStatusRejected, f.attempts.attempts[0].Status)
}

func TestAttemptsReturnsSessionHistory(t *testing.T) {
	f := newFixture()
	f.backend.result = &backend.PaymentResult{Status: enums.PaymentStatusRejected, Message: "insufficient funds"}
	svc := f.service(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "s1", validCardForm())
	require.Error(t, err)

	history, err := svc.Attempts(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.PaymentStatusRejected, history[0].Status)
	assert.Equal(t, enums.CheckoutStateEditing, history[0].FinalState)
	assert.Equal(t, "insufficient funds", history[0].Message)

	other, err := svc.Attempts(ctx, "s2", 10)
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = svc.Attempts(ctx, " ", 10)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitErrorStatusKeepsCart(t *testing.T) {
	f := newFixture()
	f.backend.result = &backend.PaymentResult{Status: enums.PaymentStatusError}
	svc := f.service(t)

	res, err := svc.Submit(context.Background(), "s1", validBoletoForm())
	typed := requireCode(t, err, pkgerrors.CodeDependency)
	assert.Equal(t, "the payment could not be processed", typed.Message())
	assert.Equal(t, enums.CheckoutStateEditing, res.State)
	assert.Equal(t, "bolbradesco", f.backend.lastReq.PaymentMethodID)
	assert.Zero(t, f.cart.cleared)
}

func TestSubmitTransportFailureUsesConnectionMessage(t *testing.T) {
	f := newFixture()
	f.backend.result = nil
	f.backend.payErr = errors.New("dial tcp: connection refused")
	svc := f.service(t)

	res, err := svc.Submit(context.Background(), "s1", validPixForm())
	typed := requireCode(t, err, pkgerrors.CodeDependency)
	assert.Equal(t, "could not connect to the store backend", typed.Message())
	assert.Equal(t, enums.PaymentStatusError, res.Status)
	assert.Equal(t, enums.CheckoutStateEditing, res.State)
	assert.Zero(t, f.cart.cleared)
	require.Len(t, f.attempts.attempts, 1)
	assert.Equal(t, enums.PaymentStatusError, f.attempts.attempts[0].Status)
}

func TestSubmitTokenizationFailure(t *testing.T) {
	f := newFixture()
	f.tokens = TokenizerFunc(func(context.Context, CardDetails) (string, error) {
		return "", errors.New("card declined by widget")
	})
	svc := f.service(t)

	res, err := svc.Submit(context.Background(), "s1", validCardForm())
	typed := requireCode(t, err, pkgerrors.CodeDependency)
	assert.Equal(t, map[string]string{"reason": "TOKENIZATION_FAILED"}, typed.Details())
	assert.Equal(t, enums.CheckoutStateEditing, res.State)
	assert.Contains(t, res.Trail, enums.CheckoutStateTokenizing)
	assert.Zero(t, f.backend.payCalls)
	assert.Zero(t, f.cart.cleared)
}

func TestSubmitMissingPresentedToken(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	form := validCardForm()
	form.Card.Token = ""
	_, err := svc.Submit(context.Background(), "s1", form)
	requireCode(t, err, pkgerrors.CodeDependency)
	assert.ErrorIs(t, err, ErrTokenUnavailable)
}

func TestSubmitEmptyCart(t *testing.T) {
	f := newFixture()
	f.cart.items = nil
	svc := f.service(t)

	res, err := svc.Submit(context.Background(), "s1", validPixForm())
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, map[string]string{"cart": "is empty"}, typed.Details())
	assert.Equal(t, enums.CheckoutStateEditing, res.State)
	assert.Zero(t, f.backend.payCalls)
}

func TestSubmitWhileInProgressConflicts(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	started := make(chan struct{})
	proceed := make(chan struct{})
	f.backend.beforeSend = func() {
		close(started)
		<-proceed
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "s1", validPixForm())
		done <- err
	}()
	<-started

	f.backend.beforeSend = nil
	_, err := svc.Submit(context.Background(), "s1", validPixForm())
	typed := requireCode(t, err, pkgerrors.CodeConflict)
	assert.Equal(t, "checkout already in progress", typed.Message())

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.backend.payCalls)

	_, ok := f.kv.values[f.kv.CheckoutLockKey("s1")]
	assert.False(t, ok, "lock should be released")
}

func TestSubmitCreatesCartIDLazily(t *testing.T) {
	f := newFixture()
	f.backend.cartErr = errors.New("backend down")
	svc := f.service(t)
	ctx := context.Background()

	summary, err := svc.Begin(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, summary.CartID)
	assert.Equal(t, 3, summary.Count)

	_, err = svc.Submit(ctx, "s1", validPixForm())
	requireCode(t, err, pkgerrors.CodeDependency)
	assert.Zero(t, f.backend.payCalls)

	f.backend.cartErr = nil
	_, err = svc.Submit(ctx, "s1", validPixForm())
	require.NoError(t, err)
	assert.Equal(t, "77", f.backend.lastReq.CartID)
	assert.Equal(t, 3, f.backend.cartCalls)

	_, err = svc.Begin(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, f.backend.cartCalls, "cart id should be reused")
}

func TestQuote(t *testing.T) {
	svc := newFixture().service(t)

	quote, err := svc.Quote(context.Background(), "s1", enums.DeliveryMethodExpress)
	require.NoError(t, err)
	assert.True(t, quote.Totals.Total.Equal(decimal.RequireFromString("270")))

	_, err = svc.Quote(context.Background(), "s1", "drone")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestLookupAddress(t *testing.T) {
	f := newFixture()
	f.address = stubAddress{addr: &types.ShippingAddress{CEP: "50030230", City: "Recife", State: "PE"}}
	svc := f.service(t)

	addr, err := svc.LookupAddress(context.Background(), "50030-230")
	require.NoError(t, err)
	assert.Equal(t, "Recife", addr.City)

	_, err = svc.LookupAddress(context.Background(), "5003")
	requireCode(t, err, pkgerrors.CodeValidation)

	f.address = stubAddress{err: pkgerrors.New(pkgerrors.CodeNotFound, "cep not found")}
	svc = f.service(t)
	_, err = svc.LookupAddress(context.Background(), "00000000")
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, map[string]string{"cep": "CEP not found"}, typed.Details())
}

func TestPaymentOptions(t *testing.T) {
	f := newFixture()
	f.gateway = stubGateway{
		method:  &mercadopago.PaymentMethod{ID: "master"},
		issuers: []mercadopago.Issuer{{Name: "Nubank"}},
		costs:   []mercadopago.PayerCost{{Installments: 1}, {Installments: 3}},
	}
	svc := f.service(t)

	opts, err := svc.PaymentOptions(context.Background(), "5031 4332 1540 6351", decimal.NewFromInt(270))
	require.NoError(t, err)
	assert.False(t, opts.Fallback)
	assert.Equal(t, "master", opts.PaymentMethod.ID)
	assert.Len(t, opts.PayerCosts, 2)

	_, err = svc.PaymentOptions(context.Background(), "503", decimal.NewFromInt(270))
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestPaymentOptionsFallsBackToSingleInstallment(t *testing.T) {
	f := newFixture()
	f.gateway = stubGateway{methodErr: pkgerrors.New(pkgerrors.CodeDependency, "gateway down")}
	svc := f.service(t)

	opts, err := svc.PaymentOptions(context.Background(), "503143", decimal.NewFromInt(270))
	require.NoError(t, err)
	assert.True(t, opts.Fallback)
	require.Len(t, opts.PayerCosts, 1)
	assert.Equal(t, 1, opts.PayerCosts[0].Installments)
	assert.True(t, opts.PayerCosts[0].TotalAmount.Equal(decimal.NewFromInt(270)))
}

func TestPublicKeyPrefersBackend(t *testing.T) {
	f := newFixture()
	f.backend.publicKey = "APP_USR-backend"
	f.gateway = stubGateway{publicKey: "APP_USR-config"}
	svc := f.service(t)

	key, err := svc.PublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-backend", key)

	f.backend.publicKey = ""
	f.backend.publicErr = errors.New("down")
	key, err = svc.PublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-config", key)
}

func TestPaymentStatusReadsGateway(t *testing.T) {
	f := newFixture()
	f.gateway = stubGateway{payment: &mercadopago.PaymentInfo{ID: "555", Status: enums.PaymentStatusPending}}
	svc := f.service(t)

	info, err := svc.PaymentStatus(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, info.Status)

	_, err = svc.PaymentStatus(context.Background(), " ")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func validBoletoForm() Form {
	f := validPixForm()
	f.Payment = enums.PaymentMethodBoleto
	return f
}
