package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lfbag/storefront/api/middleware"
	"github.com/lfbag/storefront/api/responses"
	"github.com/lfbag/storefront/api/validators"
	cartsvc "github.com/lfbag/storefront/internal/cart"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
)

type addCartItemRequest struct {
	ID         string          `json:"id" validate:"required"`
	Titulo     string          `json:"titulo" validate:"required"`
	Preco      decimal.Decimal `json:"preco"`
	Quantidade int             `json:"quantidade" validate:"omitempty,min=1,max=999"`
	ImagemURL  string          `json:"imagem_url"`
	CorPadrao  string          `json:"cor_padrao"`
}

func (r addCartItemRequest) toItem() cartsvc.Item {
	return cartsvc.Item{
		ID:         strings.TrimSpace(r.ID),
		Titulo:     strings.TrimSpace(r.Titulo),
		Preco:      r.Preco,
		Quantidade: r.Quantidade,
		ImagemURL:  strings.TrimSpace(r.ImagemURL),
		CorPadrao:  strings.TrimSpace(r.CorPadrao),
	}
}

// Quantities at or below zero remove the line, so no min is enforced.
type updateCartItemRequest struct {
	Quantidade *int `json:"quantidade" validate:"required,max=999"`
}

func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartAddItem adds a product line, merging with an existing line of the same id.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.Add(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.toItem())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, snapshot)
	}
}

func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.UpdateQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()), itemID, *payload.Quantidade)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.Remove(r.Context(), middleware.SessionIDFromContext(r.Context()), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.Clear(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

func itemIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return id, nil
}
