package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lfbag/storefront/api/responses"
	"github.com/lfbag/storefront/api/validators"
	"github.com/lfbag/storefront/internal/catalog"
	"github.com/lfbag/storefront/pkg/backend"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
)

const (
	maxCategoryLen = 64
	maxSearchLen   = 120
)

type catalogReader interface {
	Load(ctx context.Context, filter catalog.Filter) catalog.View
	Product(ctx context.Context, id string) (*backend.Product, error)
}

// CatalogList renders the product listing for an optional category and search.
func CatalogList(reader catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		view := reader.Load(r.Context(), catalog.Filter{
			Category: validators.SanitizeString(q.Get("category"), maxCategoryLen),
			Search:   validators.SanitizeString(q.Get("search"), maxSearchLen),
		})
		if view.State == enums.ViewStateError {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, view.Err, view.Error))
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CatalogProduct(reader catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		product, err := reader.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
