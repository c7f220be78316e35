package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lfbag/storefront/pkg/config"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL              = "https://api.mercadopago.com"
	responseBodyReadLimit int64 = 1024
)

// PaymentGetter is the slice of the sdk payment client used for status lookups.
type PaymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Client talks to Mercado Pago: card metadata endpoints with the public key
// and payment lookups through the sdk with the access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	payments   PaymentGetter
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the REST base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithPaymentGetter replaces the sdk payment client.
func WithPaymentGetter(getter PaymentGetter) Option {
	return func(c *Client) {
		if getter != nil {
			c.payments = getter
		}
	}
}

// NewClient builds the gateway client. The sdk payment client is only wired
// when an access token is configured.
func NewClient(cfg config.MercadoPagoConfig, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		publicKey:  strings.TrimSpace(cfg.PublicKey),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		client.baseURL = strings.TrimSpace(cfg.BaseURL)
	}

	if token := strings.TrimSpace(cfg.AccessToken); token != "" {
		sdkCfg, err := mpconfig.New(token)
		if err != nil {
			return nil, fmt.Errorf("mercadopago sdk config: %w", err)
		}
		client.payments = payment.NewClient(sdkCfg)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PublicKey returns the configured gateway public key.
func (c *Client) PublicKey() string {
	if c == nil {
		return ""
	}
	return c.publicKey
}

// PaymentMethod is the card brand resolved from a BIN.
type PaymentMethod struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PaymentTypeID string `json:"payment_type_id"`
	Thumbnail     string `json:"secure_thumbnail,omitempty"`
}

// Issuer is a card-issuing bank.
type Issuer struct {
	ID   types.FlexString `json:"id"`
	Name string           `json:"name"`
}

// PayerCost is one installment plan.
type PayerCost struct {
	Installments       int             `json:"installments"`
	InstallmentRate    decimal.Decimal `json:"installment_rate"`
	InstallmentAmount  decimal.Decimal `json:"installment_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	RecommendedMessage string          `json:"recommended_message"`
}

// SearchPaymentMethod resolves the card brand for the first digits of a card.
func (c *Client) SearchPaymentMethod(ctx context.Context, bin string) (*PaymentMethod, error) {
	if err := c.requirePublicKey(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("public_key", c.publicKey)
	q.Set("bins", bin)
	q.Set("marketplace", "NONE")

	var apiResp struct {
		Results []PaymentMethod `json:"results"`
	}
	if err := c.getJSON(ctx, "v1/payment_methods/search", q, &apiResp, "payment method search"); err != nil {
		return nil, err
	}
	if len(apiResp.Results) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment method for card bin")
	}
	method := apiResp.Results[0]
	return &method, nil
}

// Issuers lists issuers for a payment method and BIN.
func (c *Client) Issuers(ctx context.Context, paymentMethodID, bin string) ([]Issuer, error) {
	if err := c.requirePublicKey(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("public_key", c.publicKey)
	q.Set("payment_method_id", paymentMethodID)
	if bin != "" {
		q.Set("bin", bin)
	}

	var issuers []Issuer
	if err := c.getJSON(ctx, "v1/payment_methods/card_issuers", q, &issuers, "card issuers"); err != nil {
		return nil, err
	}
	return issuers, nil
}

// Installments returns the payer cost plans for an amount.
func (c *Client) Installments(ctx context.Context, amount decimal.Decimal, bin, paymentMethodID string) ([]PayerCost, error) {
	if err := c.requirePublicKey(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("public_key", c.publicKey)
	q.Set("amount", amount.StringFixed(2))
	q.Set("locale", "pt-BR")
	if bin != "" {
		q.Set("bin", bin)
	}
	if paymentMethodID != "" {
		q.Set("payment_method_id", paymentMethodID)
	}

	var apiResp []struct {
		PaymentMethodID string      `json:"payment_method_id"`
		PayerCosts      []PayerCost `json:"payer_costs"`
	}
	if err := c.getJSON(ctx, "v1/payment_methods/installments", q, &apiResp, "installments"); err != nil {
		return nil, err
	}
	if len(apiResp) == 0 {
		return nil, nil
	}
	return apiResp[0].PayerCosts, nil
}

// PaymentInfo is a gateway payment mapped onto the storefront status enum.
type PaymentInfo struct {
	ID           string              `json:"id"`
	Status       enums.PaymentStatus `json:"status"`
	RawStatus    string              `json:"raw_status"`
	StatusDetail string              `json:"status_detail,omitempty"`
	Amount       decimal.Decimal     `json:"amount"`
	MethodID     string              `json:"payment_method_id,omitempty"`
	QRCode       string              `json:"qr_code,omitempty"`
	QRCodeBase64 string              `json:"qr_code_base64,omitempty"`
}

// Payment looks a payment up by id.
func (c *Client) Payment(ctx context.Context, id string) (*PaymentInfo, error) {
	if c == nil || c.payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercadopago access token not configured")
	}
	numericID, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || numericID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id must be a positive integer")
	}

	resp, err := c.payments.Get(ctx, numericID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mercadopago payment lookup failed")
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}

	return &PaymentInfo{
		ID:           strconv.Itoa(resp.ID),
		Status:       enums.PaymentStatusOrError(resp.Status),
		RawStatus:    resp.Status,
		StatusDetail: resp.StatusDetail,
		Amount:       decimal.NewFromFloat(resp.TransactionAmount),
		MethodID:     resp.PaymentMethodID,
		QRCode:       resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: resp.PointOfInteraction.TransactionData.QRCodeBase64,
	}, nil
}

func (c *Client) requirePublicKey() error {
	if c == nil || c.publicKey == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "mercadopago public key not configured")
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any, op string) error {
	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"), query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), op+" request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" response")
	}
	return nil
}
