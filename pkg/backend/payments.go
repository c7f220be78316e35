package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

const paymentReplyReadLimit int64 = 64 << 10

// Identification is the payer's tax document.
type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type Payer struct {
	Email          string         `json:"email,omitempty"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Identification Identification `json:"identification"`
}

// ShippingAddress uses the field names the payment endpoint reads.
type ShippingAddress struct {
	ZipCode      string `json:"zip_code"`
	StreetName   string `json:"street_name"`
	StreetNumber string `json:"street_number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	FederalUnit  string `json:"federal_unit"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PaymentRequest is the order submission payload.
type PaymentRequest struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Token             string          `json:"token,omitempty"`
	Installments      int             `json:"installments"`
	PaymentMethodID   string          `json:"payment_method_id"`
	IssuerID          string          `json:"issuer_id,omitempty"`
	Description       string          `json:"description"`
	Payer             Payer           `json:"payer"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
	CartID            string          `json:"cart_id"`
	Items             []OrderItem     `json:"items"`
	DeliveryMethod    string          `json:"delivery_method"`
	ShippingFee       decimal.Decimal `json:"shipping_fee"`
}

// PaymentResult is the backend verdict. Status is always one of the four
// explicit values; anything the backend did not state clearly is error.
type PaymentResult struct {
	Status       enums.PaymentStatus `json:"status"`
	StatusDetail string              `json:"status_detail,omitempty"`
	PaymentID    string              `json:"payment_id,omitempty"`
	OrderID      string              `json:"order_id,omitempty"`
	Message      string              `json:"message,omitempty"`
	QRCode       string              `json:"qr_code,omitempty"`
	QRCodeBase64 string              `json:"qr_code_base64,omitempty"`
	TicketURL    string              `json:"ticket_url,omitempty"`
	HTTPStatus   int                 `json:"-"`
}

type paymentReply struct {
	Status         string           `json:"status"`
	StatusDetail   string           `json:"status_detail"`
	MPStatusDetail string           `json:"mp_status_detail"`
	ID             types.FlexString `json:"id"`
	PaymentID      types.FlexString `json:"payment_id"`
	OrderID        types.FlexString `json:"order_id"`
	Message        string           `json:"message"`
	QRCode         string           `json:"qr_code"`
	QRCodeBase64   string           `json:"qr_code_base64"`
	TicketURL      string           `json:"ticket_url"`
}

// ProcessPayment posts the order to /api/pagamento/processar/. Transport
// failures return an error; any reply, whatever its HTTP status, is mapped
// onto a PaymentResult.
func (c *Client) ProcessPayment(ctx context.Context, idempotencyKey string, payload PaymentRequest) (*PaymentResult, error) {
	req, err := jsonRequest(http.MethodPost, "/api/pagamento/processar/", payload)
	if err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		req.headers = map[string]string{HeaderIdempotencyKey: key}
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, paymentReplyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, connectionMessage)
	}

	var reply paymentReply
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &reply); err != nil {
			reply = paymentReply{}
		}
	}

	result := &PaymentResult{
		Status:       enums.PaymentStatusOrError(reply.Status),
		StatusDetail: firstNonEmpty(reply.StatusDetail, reply.MPStatusDetail),
		PaymentID:    firstNonEmpty(reply.PaymentID.String(), reply.ID.String()),
		OrderID:      reply.OrderID.String(),
		Message:      strings.TrimSpace(reply.Message),
		QRCode:       reply.QRCode,
		QRCodeBase64: reply.QRCodeBase64,
		TicketURL:    reply.TicketURL,
		HTTPStatus:   resp.StatusCode,
	}
	return result, nil
}

// CreateCart registers a backend cart via POST /api/carrinhos/criar/.
func (c *Client) CreateCart(ctx context.Context) (string, error) {
	var reply struct {
		ID         types.FlexString `json:"id"`
		CarrinhoID types.FlexString `json:"carrinho_id"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/carrinhos/criar/"}, &reply); err != nil {
		return "", err
	}
	id := firstNonEmpty(reply.ID.String(), reply.CarrinhoID.String())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "backend returned no cart id")
	}
	return id, nil
}

// PublicKey fetches the gateway public key from GET /api/public-key/.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
	var reply struct {
		PublicKey string `json:"public_key"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/public-key/"}, &reply); err != nil {
		return "", err
	}
	key := strings.TrimSpace(reply.PublicKey)
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "backend returned empty public key")
	}
	return key, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
