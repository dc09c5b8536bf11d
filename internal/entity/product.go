package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidProductID = errors.New("product_id must be a string or a number")

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

// Statuses lists every status in the order the form selector offers them.
var Statuses = []Status{StatusDraft, StatusPublished, StatusArchived}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ProductID is assigned by the product API. Some deployments send it as a
// number, others as a string; both decode to the same textual form.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidProductID
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string { return string(id) }

// Timestamp is a time set by the product API. Backends disagree on the
// layout, so anything that matches none of the known layouts decodes to the
// zero time instead of failing the whole record.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp tries each known layout in turn.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*ts, _ = ParseTimestamp(s)
		return nil
	}
	// Unix seconds
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if secs, err := n.Int64(); err == nil {
			*ts = Timestamp{Time: time.Unix(secs, 0).UTC()}
		}
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time)
}

// Product is the console's read-only copy of a record owned by the API.
type Product struct {
	ID          ProductID `json:"product_id"`
	Name        string    `json:"product_name"`
	Description string    `json:"product_desc"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

func (p Product) IsLive() bool {
	return p.Status == StatusPublished
}

// ProductDraft holds the editable fields of a product while the form is open.
type ProductDraft struct {
	Name        string `json:"product_name"`
	Description string `json:"product_desc"`
	Status      Status `json:"status"`
}

func DefaultDraft() ProductDraft {
	return ProductDraft{Status: StatusDraft}
}

// DraftFromProduct copies the editable fields of p.
func DraftFromProduct(p Product) ProductDraft {
	return ProductDraft{
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
	}
}

// HasName reports whether the draft carries a name once surrounding
// whitespace is ignored.
func (d ProductDraft) HasName() bool {
	return strings.TrimSpace(d.Name) != ""
}
