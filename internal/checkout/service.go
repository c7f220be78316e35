package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lfbag/storefront/internal/cart"
	"github.com/lfbag/storefront/pkg/backend"
	pkgcheckout "github.com/lfbag/storefront/pkg/checkout"
	"github.com/lfbag/storefront/pkg/db/models"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
	"github.com/lfbag/storefront/pkg/mercadopago"
	"github.com/lfbag/storefront/pkg/types"
)

const (
	reasonTokenizationFailed = "TOKENIZATION_FAILED"
	minBINLength             = 6
)

type cartReader interface {
	Get(ctx context.Context, sessionID string) (*cart.Snapshot, error)
	Clear(ctx context.Context, sessionID string) (*cart.Snapshot, error)
}

type orderBackend interface {
	CreateCart(ctx context.Context) (string, error)
	ProcessPayment(ctx context.Context, idempotencyKey string, payload backend.PaymentRequest) (*backend.PaymentResult, error)
	PublicKey(ctx context.Context) (string, error)
}

type addressLookup interface {
	Lookup(ctx context.Context, cep string) (*types.ShippingAddress, error)
}

type paymentGateway interface {
	PublicKey() string
	SearchPaymentMethod(ctx context.Context, bin string) (*mercadopago.PaymentMethod, error)
	Issuers(ctx context.Context, paymentMethodID, bin string) ([]mercadopago.Issuer, error)
	Installments(ctx context.Context, amount decimal.Decimal, bin, paymentMethodID string) ([]mercadopago.PayerCost, error)
	Payment(ctx context.Context, id string) (*mercadopago.PaymentInfo, error)
}

type checkoutRecorder interface {
	ObserveCheckout(paymentMethod, status string, duration time.Duration)
	IncDependencyFailure(dependency string)
}

// Summary is what the checkout page renders before submission.
type Summary struct {
	CartID string      `json:"cart_id,omitempty"`
	Items  []cart.Item `json:"items"`
	Count  int         `json:"count"`
	Totals Totals      `json:"totals"`
}

// PaymentOptions describes how a card can be charged.
type PaymentOptions struct {
	PaymentMethod *mercadopago.PaymentMethod `json:"payment_method,omitempty"`
	Issuers       []mercadopago.Issuer       `json:"issuers"`
	PayerCosts    []mercadopago.PayerCost    `json:"payer_costs"`
	Fallback      bool                       `json:"fallback"`
}

// Result is the outcome of a submission.
type Result struct {
	Status       enums.PaymentStatus   `json:"status"`
	State        enums.CheckoutState   `json:"state"`
	Trail        []enums.CheckoutState `json:"trail,omitempty"`
	PaymentID    string                `json:"payment_id,omitempty"`
	OrderID      string                `json:"order_id,omitempty"`
	StatusDetail string                `json:"status_detail,omitempty"`
	Message      string                `json:"message,omitempty"`
	QRCode       string                `json:"qr_code,omitempty"`
	QRCodeBase64 string                `json:"qr_code_base64,omitempty"`
	TicketURL    string                `json:"ticket_url,omitempty"`
	Totals       Totals                `json:"totals"`
	Items        []cart.Item           `json:"items,omitempty"`
	Address      types.ShippingAddress `json:"address"`
}

// Service runs the checkout flow for a storefront session.
type Service interface {
	Begin(ctx context.Context, sessionID string) (*Summary, error)
	Quote(ctx context.Context, sessionID string, delivery enums.DeliveryMethod) (*Summary, error)
	LookupAddress(ctx context.Context, cep string) (*types.ShippingAddress, error)
	PaymentOptions(ctx context.Context, bin string, amount decimal.Decimal) (*PaymentOptions, error)
	PublicKey(ctx context.Context) (string, error)
	Submit(ctx context.Context, sessionID string, form Form) (*Result, error)
	PaymentStatus(ctx context.Context, paymentID string) (*mercadopago.PaymentInfo, error)
	Attempts(ctx context.Context, sessionID string, limit int) ([]Attempt, error)
}

// Attempt is the customer-facing view of an audited submission.
type Attempt struct {
	ID             string               `json:"id"`
	PaymentMethod  enums.PaymentMethod  `json:"payment_method"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	Total          decimal.Decimal      `json:"total"`
	Status         enums.PaymentStatus  `json:"status"`
	FinalState     enums.CheckoutState  `json:"final_state"`
	PaymentID      string               `json:"payment_id,omitempty"`
	Message        string               `json:"message,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ServiceParams bundles the checkout dependencies. Locker, Attempts,
// Metrics and Logger are optional.
type ServiceParams struct {
	Cart        cartReader
	Backend     orderBackend
	Address     addressLookup
	Gateway     paymentGateway
	Tokenizer   CardTokenizer
	CartIDs     CartIDStore
	Locker      Locker
	Attempts    AttemptRecorder
	Metrics     checkoutRecorder
	Logger      *logger.Logger
	ExpressFee  decimal.Decimal
	Description string
}

type service struct {
	cart        cartReader
	backend     orderBackend
	address     addressLookup
	gateway     paymentGateway
	tokenizer   CardTokenizer
	cartIDs     CartIDStore
	locker      Locker
	attempts    AttemptRecorder
	metrics     checkoutRecorder
	logg        *logger.Logger
	expressFee  decimal.Decimal
	description string
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if params.Address == nil {
		return nil, fmt.Errorf("address lookup required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.CartIDs == nil {
		return nil, fmt.Errorf("cart id store required")
	}
	if params.Tokenizer == nil {
		params.Tokenizer = PresentedTokenizer{}
	}
	if params.ExpressFee.IsNegative() {
		return nil, fmt.Errorf("express fee must not be negative")
	}
	return &service{
		cart:        params.Cart,
		backend:     params.Backend,
		address:     params.Address,
		gateway:     params.Gateway,
		tokenizer:   params.Tokenizer,
		cartIDs:     params.CartIDs,
		locker:      params.Locker,
		attempts:    params.Attempts,
		metrics:     params.Metrics,
		logg:        params.Logger,
		expressFee:  params.ExpressFee,
		description: params.Description,
		now:         time.Now,
	}, nil
}

func (s *service) Begin(ctx context.Context, sessionID string) (*Summary, error) {
	snapshot, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cartID, err := s.ensureCartID(ctx, sessionID)
	if err != nil {
		s.logError(ctx, "checkout.cart_id_unavailable", err)
		s.dependencyFailed("backend")
	}
	return &Summary{
		CartID: cartID,
		Items:  snapshot.Items,
		Count:  snapshot.Count,
		Totals: ComputeTotals(snapshot.Subtotal, enums.DeliveryMethodStandard, s.expressFee),
	}, nil
}

func (s *service) Quote(ctx context.Context, sessionID string, delivery enums.DeliveryMethod) (*Summary, error) {
	if !delivery.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method").
			WithDetails(map[string]string{"delivery_method": "must be standard or express"})
	}
	snapshot, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Items:  snapshot.Items,
		Count:  snapshot.Count,
		Totals: ComputeTotals(snapshot.Subtotal, delivery, s.expressFee),
	}, nil
}

func (s *service) LookupAddress(ctx context.Context, cep string) (*types.ShippingAddress, error) {
	if !pkgcheckout.ValidCEP(cep) {
		return nil, pkgerrors.FieldErrors{"cep": "must have 8 digits"}.Err("invalid CEP")
	}
	addr, err := s.address.Lookup(ctx, pkgcheckout.DigitsOnly(cep))
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.FieldErrors{"cep": "CEP not found"}.Err("CEP not found")
		}
		s.dependencyFailed("viacep")
		return nil, err
	}
	return addr, nil
}

func (s *service) PaymentOptions(ctx context.Context, bin string, amount decimal.Decimal) (*PaymentOptions, error) {
	bin = pkgcheckout.DigitsOnly(bin)
	fields := pkgerrors.FieldErrors{}
	if len(bin) < minBINLength {
		fields.Add("bin", "must have at least 6 digits")
	}
	if !amount.IsPositive() {
		fields.Add("amount", "must be positive")
	}
	if err := fields.Err(""); err != nil {
		return nil, err
	}
	bin = bin[:minBINLength]

	fallback := &PaymentOptions{
		Issuers:    []mercadopago.Issuer{},
		PayerCosts: []mercadopago.PayerCost{singleInstallment(amount)},
		Fallback:   true,
	}

	method, err := s.gateway.SearchPaymentMethod(ctx, bin)
	if err != nil {
		s.logError(ctx, "checkout.payment_method_lookup_failed", err)
		s.dependencyFailed("mercadopago")
		return fallback, nil
	}
	fallback.PaymentMethod = method

	issuers, err := s.gateway.Issuers(ctx, method.ID, bin)
	if err != nil {
		s.logError(ctx, "checkout.issuers_lookup_failed", err)
		issuers = []mercadopago.Issuer{}
	}
	costs, err := s.gateway.Installments(ctx, amount, bin, method.ID)
	if err != nil || len(costs) == 0 {
		if err != nil {
			s.logError(ctx, "checkout.installments_lookup_failed", err)
			s.dependencyFailed("mercadopago")
		}
		fallback.Issuers = issuers
		return fallback, nil
	}
	return &PaymentOptions{PaymentMethod: method, Issuers: issuers, PayerCosts: costs}, nil
}

func singleInstallment(amount decimal.Decimal) mercadopago.PayerCost {
	return mercadopago.PayerCost{
		Installments:      1,
		InstallmentAmount: amount,
		TotalAmount:       amount,
	}
}

func (s *service) PublicKey(ctx context.Context) (string, error) {
	key, err := s.backend.PublicKey(ctx)
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	if err != nil {
		s.logError(ctx, "checkout.public_key_backend_failed", err)
	}
	if key := s.gateway.PublicKey(); key != "" {
		return key, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeDependency, "payment public key unavailable")
}

// Attempts lists the session's recent submissions, newest first. Without an
// audit store the history is empty.
func (s *service) Attempts(ctx context.Context, sessionID string, limit int) ([]Attempt, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	if s.attempts == nil {
		return []Attempt{}, nil
	}
	rows, err := s.attempts.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout history unavailable")
	}
	out := make([]Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, Attempt{
			ID:             row.ID.String(),
			PaymentMethod:  row.PaymentMethod,
			DeliveryMethod: row.DeliveryMethod,
			Total:          row.Total,
			Status:         row.Status,
			FinalState:     row.FinalState,
			PaymentID:      row.PaymentID,
			Message:        row.Message,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) PaymentStatus(ctx context.Context, paymentID string) (*mercadopago.PaymentInfo, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	info, err := s.gateway.Payment(ctx, paymentID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			s.dependencyFailed("mercadopago")
		}
		return nil, err
	}
	return info, nil
}

// Submit validates the form, tokenizes cards, posts the order and branches on
// the explicit status the backend returns.
func (s *service) Submit(ctx context.Context, sessionID string, form Form) (*Result, error) {
	started := s.now()
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "storefront session required")
	}
	if form.Delivery == "" {
		form.Delivery = enums.DeliveryMethodStandard
	}

	machine := NewMachine(form.Payment)
	result := &Result{Status: enums.PaymentStatusError, Address: form.Address()}
	finish := func(err error) (*Result, error) {
		result.State = machine.State()
		result.Trail = machine.Trail()
		return result, err
	}

	if err := machine.Fire(EventSubmit); err != nil {
		return finish(err)
	}
	if err := form.Validate(); err != nil {
		_ = machine.Fire(EventInvalid)
		return finish(err)
	}

	release, err := s.acquire(ctx, sessionID)
	if err != nil {
		_ = machine.Fire(EventFailed)
		return finish(err)
	}
	defer release()

	snapshot, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		_ = machine.Fire(EventFailed)
		return finish(err)
	}
	if len(snapshot.Items) == 0 {
		_ = machine.Fire(EventInvalid)
		return finish(pkgerrors.FieldErrors{"cart": "is empty"}.Err("cart is empty"))
	}
	result.Items = snapshot.Items
	result.Totals = ComputeTotals(snapshot.Subtotal, form.Delivery, s.expressFee)

	cartID, err := s.ensureCartID(ctx, sessionID)
	if err != nil {
		s.dependencyFailed("backend")
		_ = machine.Fire(EventFailed)
		return finish(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not create a cart for this order"))
	}
	ctx = s.withCartID(ctx, cartID)

	if err := machine.Fire(EventValid); err != nil {
		return finish(err)
	}

	attempt := &models.CheckoutAttempt{
		SessionID:       sessionID,
		CartID:          cartID,
		PaymentMethod:   form.Payment,
		DeliveryMethod:  form.Delivery,
		Installments:    1,
		Subtotal:        result.Totals.Subtotal,
		ShippingFee:     result.Totals.ShippingFee,
		Total:           result.Totals.Total,
		PayerEmail:      strings.TrimSpace(form.Email),
		ShippingAddress: result.Address,
	}
	defer func() {
		attempt.Status = result.Status
		attempt.FinalState = machine.State()
		attempt.PaymentID = result.PaymentID
		attempt.Message = result.Message
		s.record(ctx, attempt, started)
	}()

	payload := s.composePayload(form, snapshot, result.Totals, cartID)

	if form.Payment.RequiresCardToken() {
		attempt.Installments = form.Card.Installments
		token, err := s.tokenizer.CreateCardToken(ctx, form.Card)
		if err != nil {
			_ = machine.Fire(EventTokenFailed)
			result.Message = "could not tokenize the card"
			s.logError(ctx, "checkout.tokenization_failed", err)
			return finish(pkgerrors.Wrap(pkgerrors.CodeDependency, err, result.Message).
				WithDetails(map[string]string{"reason": reasonTokenizationFailed}))
		}
		payload.Token = token
		if err := machine.Fire(EventTokenOK); err != nil {
			return finish(err)
		}
	}

	reply, err := s.backend.ProcessPayment(ctx, uuid.NewString(), payload)
	if err != nil {
		s.dependencyFailed("backend")
		_ = machine.Fire(EventFailed)
		result.Message = publicMessage(err)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, result.Message)
		}
		return finish(err)
	}

	result.Status = reply.Status
	result.PaymentID = reply.PaymentID
	result.OrderID = reply.OrderID
	result.StatusDetail = reply.StatusDetail
	result.Message = reply.Message
	result.QRCode = reply.QRCode
	result.QRCodeBase64 = reply.QRCodeBase64
	result.TicketURL = reply.TicketURL

	switch {
	case reply.Status.Settled():
		_ = machine.Fire(EventApproved)
		if _, err := s.cart.Clear(ctx, sessionID); err != nil {
			s.logError(ctx, "checkout.cart_clear_failed", err)
		}
		s.logInfo(ctx, "checkout.completed", map[string]any{"payment_id": reply.PaymentID, "status": reply.Status})
		return finish(nil)
	case reply.Status == enums.PaymentStatusRejected:
		_ = machine.Fire(EventRejected)
		if result.Message == "" {
			result.Message = "payment rejected"
		}
		return finish(pkgerrors.New(pkgerrors.CodePaymentRejected, result.Message).WithDetails(map[string]string{
			"state":         enums.CheckoutStateEditing.String(),
			"status":        reply.Status.String(),
			"status_detail": reply.StatusDetail,
		}))
	default:
		s.dependencyFailed("backend")
		_ = machine.Fire(EventFailed)
		if result.Message == "" {
			result.Message = "the payment could not be processed"
		}
		return finish(pkgerrors.New(pkgerrors.CodeDependency, result.Message).WithDetails(map[string]string{
			"state":         enums.CheckoutStateEditing.String(),
			"status":        enums.PaymentStatusError.String(),
			"status_detail": reply.StatusDetail,
		}))
	}
}

func (s *service) composePayload(form Form, snapshot *cart.Snapshot, totals Totals, cartID string) backend.PaymentRequest {
	first, last := splitName(form.Name)
	addr := form.Address()

	items := make([]backend.OrderItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, backend.OrderItem{ProductID: item.ID, Quantity: item.Quantidade})
	}

	payload := backend.PaymentRequest{
		TransactionAmount: totals.Total,
		Installments:      1,
		PaymentMethodID:   form.Payment.GatewayID(),
		Description:       s.description,
		Payer: backend.Payer{
			Email:     strings.TrimSpace(form.Email),
			FirstName: first,
			LastName:  last,
			Identification: backend.Identification{
				Type:   strings.ToUpper(strings.TrimSpace(form.DocumentType)),
				Number: pkgcheckout.DigitsOnly(form.DocumentNumber),
			},
		},
		ShippingAddress: backend.ShippingAddress{
			ZipCode:      addr.CEP,
			StreetName:   addr.Street,
			StreetNumber: addr.Number,
			Complement:   addr.Complement,
			Neighborhood: addr.Neighborhood,
			City:         addr.City,
			FederalUnit:  addr.State,
		},
		CartID:         cartID,
		Items:          items,
		DeliveryMethod: form.Delivery.String(),
		ShippingFee:    totals.ShippingFee,
	}

	if form.Payment.RequiresCardToken() {
		payload.Installments = form.Card.Installments
		payload.PaymentMethodID = strings.TrimSpace(form.Card.PaymentMethodID)
		payload.IssuerID = strings.TrimSpace(form.Card.IssuerID)
		payload.Payer.Identification = backend.Identification{
			Type:   strings.ToUpper(strings.TrimSpace(form.Card.IdentificationType)),
			Number: pkgcheckout.DigitsOnly(form.Card.IdentificationNumber),
		}
	}
	return payload
}

// ensureCartID returns the session's backend cart id, creating one on first use.
func (s *service) ensureCartID(ctx context.Context, sessionID string) (string, error) {
	cartID, err := s.cartIDs.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if cartID != "" {
		return cartID, nil
	}
	cartID, err = s.backend.CreateCart(ctx)
	if err != nil {
		return "", err
	}
	if err := s.cartIDs.Save(ctx, sessionID, cartID); err != nil {
		s.logError(ctx, "checkout.cart_id_save_failed", err)
	}
	return cartID, nil
}

func (s *service) acquire(ctx context.Context, sessionID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, ok, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		s.dependencyFailed("redis")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not acquire checkout lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logError(ctx, "checkout.lock_release_failed", err)
		}
	}, nil
}

func (s *service) record(ctx context.Context, attempt *models.CheckoutAttempt, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(attempt.PaymentMethod.String(), attempt.Status.String(), s.now().Sub(started))
	}
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Record(context.WithoutCancel(ctx), attempt); err != nil {
		s.logError(ctx, "checkout.attempt_record_failed", err)
	}
}

func (s *service) dependencyFailed(dependency string) {
	if s.metrics != nil {
		s.metrics.IncDependencyFailure(dependency)
	}
}

func (s *service) withCartID(ctx context.Context, cartID string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithCartID(ctx, cartID)
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}

func (s *service) logInfo(ctx context.Context, msg string, fields map[string]any) {
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, fields), msg)
	}
}

// publicMessage prefers the message a typed error carries.
func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return "could not connect to the store backend"
}
