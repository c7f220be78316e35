package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry as the backend serializes it.
type Product struct {
	ID          types.FlexString    `json:"id"`
	Titulo      string              `json:"titulo"`
	Descricao   string              `json:"descricao"`
	Categoria   string              `json:"categoria"`
	Preco       decimal.Decimal     `json:"preco"`
	Quantidade  int                 `json:"quantidade"`
	Material    string              `json:"material"`
	CorPadrao   string              `json:"cor_padrao"`
	Altura      decimal.NullDecimal `json:"altura"`
	Comprimento decimal.NullDecimal `json:"comprimento"`
	Largura     decimal.NullDecimal `json:"largura"`
	Imagens     []ProductImage      `json:"imagens"`
}

// ProductImage is one stored product photo.
type ProductImage struct {
	ID       types.FlexString `json:"id"`
	URL      string           `json:"url"`
	CriadoEm *time.Time       `json:"criado_em,omitempty"`
}

// CoverURL returns the first image URL, or "" when the product has none.
func (p Product) CoverURL() string {
	for _, img := range p.Imagens {
		if strings.TrimSpace(img.URL) != "" {
			return img.URL
		}
	}
	return ""
}

// ProductFilter narrows the product listing.
type ProductFilter struct {
	Categoria string
	Search    string
}

// ProductInput carries admin form values. Numeric fields stay as the
// submitted strings; the admin layer validates their shape.
type ProductInput struct {
	Titulo      string `json:"titulo"`
	Descricao   string `json:"descricao"`
	Categoria   string `json:"categoria"`
	Preco       string `json:"preco"`
	Quantidade  string `json:"quantidade"`
	Material    string `json:"material,omitempty"`
	CorPadrao   string `json:"cor_padrao,omitempty"`
	Altura      string `json:"altura,omitempty"`
	Comprimento string `json:"comprimento,omitempty"`
	Largura     string `json:"largura,omitempty"`
}

func (in ProductInput) formFields() [][2]string {
	fields := [][2]string{
		{"titulo", in.Titulo},
		{"descricao", in.Descricao},
		{"categoria", in.Categoria},
		{"preco", in.Preco},
		{"quantidade", in.Quantidade},
		{"material", in.Material},
		{"cor_padrao", in.CorPadrao},
		{"altura", in.Altura},
		{"comprimento", in.Comprimento},
		{"largura", in.Largura},
	}
	out := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f[1]) != "" {
			out = append(out, f)
		}
	}
	return out
}

// ImageUpload is one file sent with a product create.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// ListProducts fetches GET /api/products/.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	q := url.Values{}
	if v := strings.TrimSpace(filter.Categoria); v != "" {
		q.Set("categoria", v)
	}
	if v := strings.TrimSpace(filter.Search); v != "" {
		q.Set("search", v)
	}

	var products []Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/products/", query: q}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches GET /api/product/{id}/.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	if err := c.do(ctx, request{method: http.MethodGet, path: productPath(id)}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct posts a multipart form to /api/products/.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput, images []ImageUpload) (*Product, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range in.formFields() {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write product field")
		}
	}
	for i, img := range images {
		if img.Data == nil {
			continue
		}
		filename := img.Filename
		if filename == "" {
			filename = fmt.Sprintf("imagem-%d", i+1)
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imagens"; filename=%q`, filename))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create image part")
		}
		if _, err := io.Copy(part, img.Data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy image data")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close multipart writer")
	}

	var product Product
	req := request{method: http.MethodPost, path: "/api/products/", body: body, contentType: writer.FormDataContentType()}
	if err := c.do(ctx, req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct sends PUT /api/product/{id}/.
func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	req, err := jsonRequest(http.MethodPut, productPath(id), in)
	if err != nil {
		return nil, err
	}
	var product Product
	if err := c.do(ctx, req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct sends DELETE /api/product/{id}/.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return c.do(ctx, request{method: http.MethodDelete, path: productPath(id)}, nil)
}

func productPath(id string) string {
	return fmt.Sprintf("/api/product/%s/", url.PathEscape(strings.TrimSpace(id)))
}
