package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/lfbag/storefront/pkg/backend"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
)

const loadFailedMessage = "could not load products"

type productSource interface {
	ListProducts(ctx context.Context, filter backend.ProductFilter) ([]backend.Product, error)
	GetProduct(ctx context.Context, id string) (*backend.Product, error)
}

// Filter is what the storefront asks the catalog for.
type Filter struct {
	Category string
	Search   string
}

// View is a catalog listing in one of its render states.
type View struct {
	State    enums.ViewState   `json:"state"`
	Category string            `json:"category,omitempty"`
	Products []backend.Product `json:"products"`
	Error    string            `json:"error,omitempty"`
	Err      error             `json:"-"`
}

// LoadingView is the state before a fetch resolves.
func LoadingView() View {
	return View{State: enums.ViewStateLoading, Products: []backend.Product{}}
}

// Reader loads product listings from the store backend. It keeps no cache.
type Reader struct {
	source productSource
	logg   *logger.Logger
}

func NewReader(source productSource, logg *logger.Logger) (*Reader, error) {
	if source == nil {
		return nil, fmt.Errorf("product source required")
	}
	return &Reader{source: source, logg: logg}, nil
}

// Load fetches the listing. A failed fetch yields an error view; retrying
// means calling Load again.
func (r *Reader) Load(ctx context.Context, filter Filter) View {
	category := ""
	if strings.TrimSpace(filter.Category) != "" {
		category = ResolveCategory(filter.Category)
	}

	products, err := r.source.ListProducts(ctx, backend.ProductFilter{
		Categoria: category,
		Search:    filter.Search,
	})
	if err != nil {
		if r.logg != nil {
			r.logg.Error(ctx, "catalog.load_failed", err)
		}
		return View{State: enums.ViewStateError, Category: category, Products: []backend.Product{}, Error: loadFailedMessage, Err: err}
	}

	if category != "" {
		products = filterByCategory(products, category)
	}
	if products == nil {
		products = []backend.Product{}
	}
	return View{State: enums.ViewStateSuccess, Category: category, Products: products}
}

// Product fetches one product, falling back to the listing when the detail
// endpoint does not know the id.
func (r *Reader) Product(ctx context.Context, id string) (*backend.Product, error) {
	id = strings.TrimSpace(id)
	product, err := r.source.GetProduct(ctx, id)
	if err == nil {
		return product, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	products, listErr := r.source.ListProducts(ctx, backend.ProductFilter{})
	if listErr != nil {
		return nil, listErr
	}
	for i := range products {
		if products[i].ID.String() == id {
			return &products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func filterByCategory(products []backend.Product, category string) []backend.Product {
	want := Normalize(category)
	out := make([]backend.Product, 0, len(products))
	for _, p := range products {
		if Normalize(p.Categoria) == want {
			out = append(out, p)
		}
	}
	return out
}
