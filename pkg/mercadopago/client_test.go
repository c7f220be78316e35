package mercadopago

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/lfbag/storefront/pkg/config"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type fakePayments struct {
	resp  *payment.Response
	err   error
	gotID int
}

func (f *fakePayments) Get(_ context.Context, id int) (*payment.Response, error) {
	f.gotID = id
	return f.resp, f.err
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL("http://mp.test"), WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := NewClient(config.MercadoPagoConfig{PublicKey: "TEST-pk"}, opts...)
	require.NoError(t, err)
	return client
}

func okJSON(body string) *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}
}

func TestSearchPaymentMethod(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return okJSON(`{"results":[{"id":"master","name":"Mastercard","payment_type_id":"credit_card"}]}`), nil
	})

	method, err := client.SearchPaymentMethod(context.Background(), "503143")
	require.NoError(t, err)
	assert.Equal(t, "master", method.ID)
	assert.Equal(t, "/v1/payment_methods/search", captured.URL.Path)
	assert.Equal(t, "TEST-pk", captured.URL.Query().Get("public_key"))
	assert.Equal(t, "503143", captured.URL.Query().Get("bins"))
}

func TestSearchPaymentMethodNoResults(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return okJSON(`{"results":[]}`), nil
	})

	_, err := client.SearchPaymentMethod(context.Background(), "000000")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestIssuersAcceptNumericAndStringIDs(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return okJSON(`[{"id":25,"name":"Banco A"},{"id":"310","name":"Banco B"}]`), nil
	})

	issuers, err := client.Issuers(context.Background(), "visa", "411111")
	require.NoError(t, err)
	require.Len(t, issuers, 2)
	assert.Equal(t, types.FlexString("25"), issuers[0].ID)
	assert.Equal(t, types.FlexString("310"), issuers[1].ID)
}

func TestInstallments(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return okJSON(`[{"payment_method_id":"visa","payer_costs":[{"installments":1,"installment_rate":0,"installment_amount":270,"total_amount":270,"recommended_message":"1 parcela de R$ 270,00"},{"installments":3,"installment_rate":4.5,"installment_amount":94.05,"total_amount":282.15}]}]`), nil
	})

	plans, err := client.Installments(context.Background(), decimal.NewFromInt(270), "411111", "visa")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "270.00", captured.URL.Query().Get("amount"))
	assert.True(t, plans[1].TotalAmount.Equal(decimal.RequireFromString("282.15")))
}

func TestMetadataRequiresPublicKey(t *testing.T) {
	client, err := NewClient(config.MercadoPagoConfig{})
	require.NoError(t, err)

	_, err = client.Installments(context.Background(), decimal.NewFromInt(10), "", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestUpstreamFailureIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: io.NopCloser(strings.NewReader("boom")), Header: http.Header{}}, nil
	})

	_, err := client.Issuers(context.Background(), "visa", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Contains(t, err.Error(), "status 500")
}

func TestPaymentMapsGatewayStatus(t *testing.T) {
	cases := map[string]enums.PaymentStatus{
		"approved":   enums.PaymentStatusApproved,
		"in_process": enums.PaymentStatusPending,
		"pending":    enums.PaymentStatusPending,
		"rejected":   enums.PaymentStatusRejected,
		"weird":      enums.PaymentStatusError,
	}
	for raw, want := range cases {
		fake := &fakePayments{resp: &payment.Response{ID: 123, Status: raw, TransactionAmount: 270}}
		client := newTestClient(t, nil, WithPaymentGetter(fake))

		info, err := client.Payment(context.Background(), "123")
		require.NoError(t, err)
		assert.Equal(t, want, info.Status, raw)
		assert.Equal(t, raw, info.RawStatus)
		assert.Equal(t, 123, fake.gotID)
		assert.True(t, info.Amount.Equal(decimal.NewFromInt(270)))
	}
}

func TestPaymentErrors(t *testing.T) {
	noSDK := newTestClient(t, nil)
	_, err := noSDK.Payment(context.Background(), "1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	client := newTestClient(t, nil, WithPaymentGetter(&fakePayments{err: errors.New("timeout")}))
	_, err = client.Payment(context.Background(), "abc")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = client.Payment(context.Background(), "42")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
