package usecase

import (
	"context"

	"github.com/xavierca1/products-cms/internal/entity"
)

// ProductAPI is the external service that owns the products.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	ListLiveProducts(ctx context.Context) ([]entity.Product, error)
	CreateProduct(ctx context.Context, draft entity.ProductDraft, actor string) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id entity.ProductID, draft entity.ProductDraft, actor string) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id entity.ProductID, actor string) error
}

type AuditPublisher interface {
	PublishAudit(ctx context.Context, event *entity.AuditEvent) error
}

type noopAuditPublisher struct{}

func (noopAuditPublisher) PublishAudit(context.Context, *entity.AuditEvent) error { return nil }
