package usecase

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/infra/integration/productapi"
)

// fakeAPI is an in-memory product API.
type fakeAPI struct {
	mu       sync.Mutex
	products []entity.Product
	nextID   int
	calls    int
	actors   []string
	fail     map[string]error
	// block, when set, holds writes until it is closed.
	block chan struct{}
}

func newFakeAPI(products ...entity.Product) *fakeAPI {
	return &fakeAPI{
		products: products,
		nextID:   len(products) + 1,
		fail:     map[string]error{},
	}
}

func (f *fakeAPI) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) begin(op string) error {
	f.mu.Lock()
	f.calls++
	err := f.fail[op]
	block := f.block
	f.mu.Unlock()

	if block != nil && op != "list_products" && op != "list_live_products" {
		<-block
	}
	return err
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]entity.Product, error) {
	if err := f.begin("list_products"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Product(nil), f.products...), nil
}

func (f *fakeAPI) ListLiveProducts(ctx context.Context) ([]entity.Product, error) {
	if err := f.begin("list_live_products"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	live := []entity.Product{}
	for _, p := range f.products {
		if p.IsLive() {
			live = append(live, p)
		}
	}
	return live, nil
}

func (f *fakeAPI) CreateProduct(ctx context.Context, d entity.ProductDraft, actor string) (*entity.Product, error) {
	if err := f.begin("create_product"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	p := entity.Product{
		ID:          entity.ProductID(strconv.Itoa(f.nextID)),
		Name:        d.Name,
		Description: d.Description,
		Status:      d.Status,
		CreatedBy:   actor,
		UpdatedBy:   actor,
		CreatedAt:   entity.NewTimestamp(now),
		UpdatedAt:   entity.NewTimestamp(now),
	}
	f.nextID++
	f.actors = append(f.actors, actor)
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, id entity.ProductID, d entity.ProductDraft, actor string) (*entity.Product, error) {
	if err := f.begin("update_product"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = d.Name
			f.products[i].Description = d.Description
			f.products[i].Status = d.Status
			f.products[i].UpdatedBy = actor
			f.products[i].UpdatedAt = entity.NewTimestamp(time.Now())
			f.actors = append(f.actors, actor)
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, &productapi.APIError{Operation: "update_product", StatusCode: http.StatusNotFound, Message: "Product not found"}
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id entity.ProductID, actor string) error {
	if err := f.begin("delete_product"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			f.actors = append(f.actors, actor)
			return nil
		}
	}
	return &productapi.APIError{Operation: "delete_product", StatusCode: http.StatusNotFound, Message: "Product not found"}
}

type MockAuditPublisher struct {
	mock.Mock
}

func (m *MockAuditPublisher) PublishAudit(ctx context.Context, event *entity.AuditEvent) error {
	return m.Called(ctx, event).Error(0)
}
