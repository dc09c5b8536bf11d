package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEvent records one successful write issued from the console.
type AuditEvent struct {
	ID          string      `json:"id"`
	Action      AuditAction `json:"action"`
	ProductID   ProductID   `json:"product_id"`
	ProductName string      `json:"product_name,omitempty"`
	Status      Status      `json:"status,omitempty"`
	Actor       string      `json:"actor"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func NewAuditEvent(action AuditAction, productID ProductID, draft ProductDraft, actor string) *AuditEvent {
	return &AuditEvent{
		ID:          uuid.New().String(),
		Action:      action,
		ProductID:   productID,
		ProductName: draft.Name,
		Status:      draft.Status,
		Actor:       actor,
		OccurredAt:  time.Now().UTC(),
	}
}

type AuditRepositoryInterface interface {
	Insert(ctx context.Context, e *AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]AuditEvent, error)
}
