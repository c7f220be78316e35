package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
)

const (
	defaultBaseURL              = "https://viacep.com.br/ws"
	responseBodyReadLimit int64 = 1024
)

// ErrCEPNotFound is returned when ViaCEP has no address for the postal code.
var ErrCEPNotFound = errors.New("cep not found")

// Client resolves Brazilian postal codes through ViaCEP.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithBaseURL overrides the ViaCEP base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Lookup fetches the address for an 8-digit CEP.
func (c *Client) Lookup(ctx context.Context, cep string) (*types.ShippingAddress, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "viacep client not configured")
	}
	digits := onlyDigits(cep)
	if len(digits) != 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cep must have 8 digits")
	}

	url := fmt.Sprintf("%s/%s/json/", strings.TrimRight(c.baseURL, "/"), digits)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build cep lookup request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute cep lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrCEPNotFound, "cep not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "cep lookup failed")
	}

	var apiResp struct {
		CEP         string `json:"cep"`
		Logradouro  string `json:"logradouro"`
		Complemento string `json:"complemento"`
		Bairro      string `json:"bairro"`
		Localidade  string `json:"localidade"`
		UF          string `json:"uf"`
		Erro        any    `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cep lookup response")
	}
	if flagged(apiResp.Erro) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrCEPNotFound, "cep not found")
	}

	return &types.ShippingAddress{
		CEP:          digits,
		Street:       apiResp.Logradouro,
		Complement:   apiResp.Complemento,
		Neighborhood: apiResp.Bairro,
		City:         apiResp.Localidade,
		State:        strings.ToUpper(apiResp.UF),
	}, nil
}

// ViaCEP has answered with both {"erro": true} and {"erro": "true"}.
func flagged(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
