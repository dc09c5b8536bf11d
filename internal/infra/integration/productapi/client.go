package productapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/infra/http/middleware"
)

const DefaultBaseURL = "http://localhost:5000/api"

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("productapi"),
	}
}

// ListProducts returns every product, whatever its status.
func (c *Client) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if err := c.do(ctx, "list_products", http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListLiveProducts returns only the Published products.
func (c *Client) ListLiveProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if err := c.do(ctx, "list_live_products", http.MethodGet, "/products/live", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct posts the draft. The API may answer with the created
// product or with a bare acknowledgement; in the latter case the returned
// product is nil.
func (c *Client) CreateProduct(ctx context.Context, draft entity.ProductDraft, actor string) (*entity.Product, error) {
	payload := createProductRequest{
		ProductName: draft.Name,
		ProductDesc: draft.Description,
		Status:      draft.Status,
		CreatedBy:   actor,
	}
	var created entity.Product
	if err := c.do(ctx, "create_product", http.MethodPost, "/products", payload, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, nil
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id entity.ProductID, draft entity.ProductDraft, actor string) (*entity.Product, error) {
	payload := updateProductRequest{
		ProductName: draft.Name,
		ProductDesc: draft.Description,
		Status:      draft.Status,
		UpdatedBy:   actor,
	}
	var updated entity.Product
	if err := c.do(ctx, "update_product", http.MethodPut, productPath(id), payload, &updated); err != nil {
		return nil, err
	}
	if updated.ID == "" {
		return nil, nil
	}
	return &updated, nil
}

// DeleteProduct sends the actor in the body so the API can keep track of
// who removed the record.
func (c *Client) DeleteProduct(ctx context.Context, id entity.ProductID, actor string) error {
	return c.do(ctx, "delete_product", http.MethodDelete, productPath(id), deleteProductRequest{UpdatedBy: actor}, nil)
}

// Ping checks that the API answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/live", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func productPath(id entity.ProductID) string {
	return "/products/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", op, err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	c.setHeaders(req, payload != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		middleware.RecordAPICall(op, "error")
		middleware.RecordAPIError(op)
		c.log.Warn("product api unreachable", zap.String("operation", op), zap.Error(err))
		return fmt.Errorf("product api %s: %w", op, err)
	}
	defer resp.Body.Close()

	middleware.RecordAPICall(op, strconv.Itoa(resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		middleware.RecordAPIError(op)
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		middleware.RecordAPIError(op)
		apiErr := &APIError{Operation: op, StatusCode: resp.StatusCode}
		var errBody errorResponse
		if json.Unmarshal(raw, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
		c.log.Warn("product api rejected request",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// Writes may be acknowledged with an arbitrary body.
		if method != http.MethodGet {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "ProductsCMS/1.0")
}
