package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrMissingSignature = errors.New("payment: missing signature")
	ErrInvalidSignature = errors.New("payment: invalid signature")
	ErrInvalidPayload   = errors.New("payment: invalid payload")
	ErrProcessingFailed = errors.New("payment: processing failed")
)

type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusProcessed WebhookStatus = "processed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// WebhookEvent is the durable record of every webhook delivery we accepted,
// kept regardless of whether it resulted in a wallet mutation.
type WebhookEvent struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider  string         `gorm:"size:32;not null" json:"provider"`
	EventType string         `gorm:"size:64;not null" json:"event_type"`
	Reference *string        `gorm:"size:64;index:ix_webhook_events_reference" json:"reference,omitempty"`
	Payload   datatypes.JSON `json:"payload"`
	Status    WebhookStatus  `gorm:"size:16;not null;default:pending" json:"status"`
	Attempts  int            `gorm:"not null;default:0" json:"attempts"`
	Error     *string        `gorm:"size:512" json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// IngestResult reports what a webhook delivery did to the ledger, if anything.
type IngestResult struct {
	EventID  snowflake.ID `json:"event_id"`
	Applied  bool         `json:"applied"`
	Replayed bool         `json:"replayed"`
}

type Service interface {
	// Ingest verifies, records and reconciles a raw webhook delivery.
	Ingest(ctx context.Context, body []byte, headers map[string]string) (*IngestResult, error)
}
