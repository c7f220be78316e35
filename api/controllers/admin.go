package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lfbag/storefront/api/middleware"
	"github.com/lfbag/storefront/api/responses"
	"github.com/lfbag/storefront/api/validators"
	"github.com/lfbag/storefront/internal/admin"
	"github.com/lfbag/storefront/pkg/backend"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
	"github.com/lfbag/storefront/pkg/pagination"
	"github.com/lfbag/storefront/pkg/types"
)

const (
	maxProductUpload = 32 << 20
	imagesField      = "imagens"
)

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminSession echoes the inspected token claims so the admin UI can render
// who is signed in.
func AdminSession(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.AdminClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		var expiresAt any
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		responses.WriteSuccess(w, map[string]any{
			"actor":      claims.Actor(),
			"email":      claims.Email,
			"username":   claims.Username,
			"is_staff":   claims.IsStaff,
			"expires_at": expiresAt,
		})
	}
}

// AdminCreateProduct accepts a multipart form with the product fields and any
// number of image files under "imagens".
func AdminCreateProduct(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxProductUpload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		form := productFormFromValues(r.MultipartForm.Value)
		images, closeAll, err := openImages(r.MultipartForm.File[imagesField])
		defer closeAll()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), form, images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

func AdminUpdateProduct(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form admin.ProductForm
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminListOrders pages through the backend order list with limit and cursor.
func AdminListOrders(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.OptionalQueryInt(r, "limit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if orders == nil {
			orders = []backend.Order{}
		}
		page, next, err := pagination.Slice(orders, pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		responses.WritePage(w, page, types.ListMeta{Count: len(orders), NextCursor: next})
	}
}

func AdminGetOrder(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminUpdateOrderStatus(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func productFormFromValues(values map[string][]string) admin.ProductForm {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	return admin.ProductForm{
		Titulo:      get("titulo"),
		Descricao:   get("descricao"),
		Categoria:   get("categoria"),
		Preco:       get("preco"),
		Quantidade:  get("quantidade"),
		Material:    get("material"),
		CorPadrao:   get("cor_padrao"),
		Altura:      get("altura"),
		Comprimento: get("comprimento"),
		Largura:     get("largura"),
	}
}

func openImages(headers []*multipart.FileHeader) ([]backend.ImageUpload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]backend.ImageUpload, 0, len(headers))
	var errs []error
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
		uploads = append(uploads, backend.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        f,
		})
	}
	if len(errs) > 0 {
		return nil, closeAll, pkgerrors.Wrap(pkgerrors.CodeValidation, errors.Join(errs...), "could not read uploaded images")
	}
	return uploads, closeAll, nil
}
