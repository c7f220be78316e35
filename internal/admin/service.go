package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/lfbag/storefront/pkg/backend"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
)

type storeBackend interface {
	CreateProduct(ctx context.Context, in backend.ProductInput, images []backend.ImageUpload) (*backend.Product, error)
	UpdateProduct(ctx context.Context, id string, in backend.ProductInput) (*backend.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListOrders(ctx context.Context) ([]backend.Order, error)
	GetOrder(ctx context.Context, id string) (*backend.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus) (*backend.Order, error)
}

// Service performs admin product and order actions, one backend call each.
// The caller's bearer token must already be on ctx.
type Service interface {
	CreateProduct(ctx context.Context, form ProductForm, images []backend.ImageUpload) (*backend.Product, error)
	UpdateProduct(ctx context.Context, id string, form ProductForm) (*backend.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListOrders(ctx context.Context) ([]backend.Order, error)
	GetOrder(ctx context.Context, id string) (*backend.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*backend.Order, error)
}

type service struct {
	backend storeBackend
	logg    *logger.Logger
}

func NewService(backend storeBackend, logg *logger.Logger) (Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &service{backend: backend, logg: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, form ProductForm, images []backend.ImageUpload) (*backend.Product, error) {
	fields := pkgerrors.FieldErrors{}
	if err := form.Validate(); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			if details, ok := typed.Details().(map[string]string); ok {
				for k, v := range details {
					fields.Add(k, v)
				}
			}
		}
	}
	for _, img := range images {
		if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
			fields.Add("imagens", fmt.Sprintf("%s is not an image", img.Filename))
		}
	}
	if err := fields.Err(""); err != nil {
		return nil, err
	}

	product, err := s.backend.CreateProduct(ctx, form.Input(), images)
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, "admin.product_created", map[string]any{"product_id": product.ID.String(), "images": len(images)})
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, form ProductForm) (*backend.Product, error) {
	if err := requireID(id, "product"); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	product, err := s.backend.UpdateProduct(ctx, id, form.Input())
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, "admin.product_updated", map[string]any{"product_id": id})
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireID(id, "product"); err != nil {
		return err
	}
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAction(ctx, "admin.product_deleted", map[string]any{"product_id": id})
	return nil
}

func (s *service) ListOrders(ctx context.Context) ([]backend.Order, error) {
	orders, err := s.backend.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []backend.Order{}
	}
	return orders, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*backend.Order, error) {
	if err := requireID(id, "order"); err != nil {
		return nil, err
	}
	return s.backend.GetOrder(ctx, id)
}

func (s *service) UpdateOrderStatus(ctx context.Context, id, status string) (*backend.Order, error) {
	if err := requireID(id, "order"); err != nil {
		return nil, err
	}
	parsed, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		allowed := make([]string, 0, len(enums.OrderStatuses()))
		for _, st := range enums.OrderStatuses() {
			allowed = append(allowed, st.String())
		}
		return nil, pkgerrors.FieldErrors{"status": "must be one of " + strings.Join(allowed, ", ")}.Err("invalid order status")
	}
	order, err := s.backend.UpdateOrderStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, "admin.order_status_updated", map[string]any{"order_id": id, "status": parsed})
	return order, nil
}

func requireID(id, kind string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.FieldErrors{"id": "is required"}.Err(kind + " id is required")
	}
	return nil
}

func (s *service) logAction(ctx context.Context, msg string, fields map[string]any) {
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, fields), msg)
	}
}
