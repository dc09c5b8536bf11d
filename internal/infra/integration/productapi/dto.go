package productapi

import (
	"fmt"

	"github.com/xavierca1/products-cms/internal/entity"
)

type createProductRequest struct {
	ProductName string        `json:"product_name"`
	ProductDesc string        `json:"product_desc"`
	Status      entity.Status `json:"status"`
	CreatedBy   string        `json:"created_by"`
}

type updateProductRequest struct {
	ProductName string        `json:"product_name"`
	ProductDesc string        `json:"product_desc"`
	Status      entity.Status `json:"status"`
	UpdatedBy   string        `json:"updated_by"`
}

type deleteProductRequest struct {
	UpdatedBy string `json:"updated_by"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError is returned for any non-2xx answer from the product API.
// Message holds the "error" field of the body, when the API sent one.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("product api %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("product api %s: status %d", e.Operation, e.StatusCode)
}
