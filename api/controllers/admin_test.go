package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/lfbag/storefront/api/middleware"
	"github.com/lfbag/storefront/internal/admin"
	"github.com/lfbag/storefront/pkg/auth"
	"github.com/lfbag/storefront/pkg/backend"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
)

type stubAdmin struct {
	form        admin.ProductForm
	images      []string
	imageBodies []string
	deletedID   string
	status      string
	orders      []backend.Order
	err         error
}

func (s *stubAdmin) CreateProduct(_ context.Context, form admin.ProductForm, images []backend.ImageUpload) (*backend.Product, error) {
	s.form = form
	for _, img := range images {
		s.images = append(s.images, img.Filename+"|"+img.ContentType)
		raw, _ := io.ReadAll(img.Data)
		s.imageBodies = append(s.imageBodies, string(raw))
	}
	if s.err != nil {
		return nil, s.err
	}
	return &backend.Product{ID: types.FlexString("10"), Titulo: form.Titulo}, nil
}

func (s *stubAdmin) UpdateProduct(_ context.Context, id string, form admin.ProductForm) (*backend.Product, error) {
	s.form = form
	return &backend.Product{ID: types.FlexString(id), Titulo: form.Titulo}, s.err
}

func (s *stubAdmin) DeleteProduct(_ context.Context, id string) error {
	s.deletedID = id
	return s.err
}

func (s *stubAdmin) ListOrders(context.Context) ([]backend.Order, error) {
	return s.orders, s.err
}

func (s *stubAdmin) GetOrder(_ context.Context, id string) (*backend.Order, error) {
	return &backend.Order{ID: types.FlexString(id)}, s.err
}

func (s *stubAdmin) UpdateOrderStatus(_ context.Context, id, status string) (*backend.Order, error) {
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	return &backend.Order{ID: types.FlexString(id), Status: status}, nil
}

func TestAdminCreateProductMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"titulo": "Bolsa Couro", "categoria": "Feminino", "preco": "199.90", "quantidade": "3"} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="imagens"; filename="frente.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	stub := &stubAdmin{}
	AdminCreateProduct(stub, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.form.Titulo != "Bolsa Couro" || stub.form.Preco != "199.90" {
		t.Fatalf("unexpected form %+v", stub.form)
	}
	if len(stub.images) != 1 || stub.images[0] != "frente.png|image/png" || stub.imageBodies[0] != "png-bytes" {
		t.Fatalf("unexpected images %v %v", stub.images, stub.imageBodies)
	}
}

func TestAdminCreateProductRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(`{"titulo":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AdminCreateProduct(&stubAdmin{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminUpdateProductSurfacesFieldErrors(t *testing.T) {
	fields := pkgerrors.FieldErrors{}
	fields.Add("titulo", "may only contain letters and spaces")
	stub := &stubAdmin{err: fields.Err("")}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/4", strings.NewReader(`{"titulo":"Bolsa 2"}`))
	req = withURLParam(req, "id", "4")
	resp := httptest.NewRecorder()
	AdminUpdateProduct(stub, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Details["titulo"] != "may only contain letters and spaces" {
		t.Fatalf("unexpected details %+v", env.Error.Details)
	}
}

func TestAdminDeleteProduct(t *testing.T) {
	stub := &stubAdmin{}
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/4", nil), "id", "4")
	resp := httptest.NewRecorder()
	AdminDeleteProduct(stub, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent || stub.deletedID != "4" {
		t.Fatalf("unexpected delete %d %q", resp.Code, stub.deletedID)
	}
}

func TestAdminListOrdersIncludesCount(t *testing.T) {
	stub := &stubAdmin{orders: []backend.Order{{ID: "1"}, {ID: "2"}}}
	resp := httptest.NewRecorder()
	AdminListOrders(stub, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"count":2`) {
		t.Fatalf("expected count meta, got %s", resp.Body.String())
	}
}

func TestAdminListOrdersPages(t *testing.T) {
	stub := &stubAdmin{orders: []backend.Order{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	resp := httptest.NewRecorder()
	AdminListOrders(stub, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?limit=2", nil))

	var envelope struct {
		Data []backend.Order `json:"data"`
		Meta types.ListMeta  `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Meta.Count != 3 || envelope.Meta.NextCursor == "" {
		t.Fatalf("unexpected page %+v", envelope)
	}

	resp = httptest.NewRecorder()
	AdminListOrders(stub, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?cursor=bogus", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	stub := &stubAdmin{}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/orders/8/status", strings.NewReader(`{"status":"enviado"}`))
	req = withURLParam(req, "id", "8")
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(stub, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || stub.status != "enviado" {
		t.Fatalf("unexpected update %d %q", resp.Code, stub.status)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/admin/orders/8/status", strings.NewReader(`{}`))
	req = withURLParam(req, "id", "8")
	resp = httptest.NewRecorder()
	AdminUpdateOrderStatus(stub, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing status, got %d", resp.Code)
	}
}

func TestAdminSession(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminSession(nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/session", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/session", nil)
	req = req.WithContext(middleware.WithAdminClaims(req.Context(), &auth.AdminClaims{Email: "admin@lfbag.com", IsStaff: true}))
	resp = httptest.NewRecorder()
	AdminSession(nil).ServeHTTP(resp, req)
	var payload map[string]any
	decodeData(t, resp, &payload)
	if payload["actor"] != "admin@lfbag.com" || payload["is_staff"] != true {
		t.Fatalf("unexpected session %v", payload)
	}
}
