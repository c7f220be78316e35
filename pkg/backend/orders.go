package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Order is a placed order as listed for the admin.
type Order struct {
	ID                 types.FlexString    `json:"id"`
	EmailUsuario       string              `json:"email_usuario"`
	Status             string              `json:"status"`
	ValorTotal         decimal.NullDecimal `json:"valor_total"`
	CEP                string              `json:"cep"`
	Bairro             string              `json:"bairro"`
	Estado             string              `json:"estado"`
	Cidade             string              `json:"cidade"`
	Numero             types.FlexString    `json:"numero"`
	MetodoPagamento    string              `json:"metodo_pagamento"`
	Frete              decimal.NullDecimal `json:"frete"`
	ProdutosDoCarrinho json.RawMessage     `json:"produtos_do_carrinho,omitempty"`
	CriadoEm           *time.Time          `json:"criado_em,omitempty"`
}

// ListOrders fetches GET /api/orders/.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/orders/"}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches GET /api/order/{id}/.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var order Order
	if err := c.do(ctx, request{method: http.MethodGet, path: orderPath(id)}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus sends PUT /api/order/{id}/ with the new status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	req, err := jsonRequest(http.MethodPut, orderPath(id), map[string]string{"status": status.String()})
	if err != nil {
		return nil, err
	}
	var order Order
	if err := c.do(ctx, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func orderPath(id string) string {
	return fmt.Sprintf("/api/order/%s/", url.PathEscape(strings.TrimSpace(id)))
}
