package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	ErrInvalidRequest = errors.New("invalid_analysis_request")
	ErrInterpretation = errors.New("interpretation_failed")
)

type AnalysisStatus string

const (
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

type Analysis struct {
	ID           snowflake.ID               `gorm:"primaryKey" json:"id"`
	FacilityID   snowflake.ID               `gorm:"not null;index:ix_analyses_facility" json:"facility_id"`
	AnalysisType pricingdomain.AnalysisType `gorm:"size:16;not null" json:"analysis_type"`
	Price        decimal.Decimal            `gorm:"type:numeric(20,2);not null" json:"price"`
	Currency     string                     `gorm:"size:8;not null" json:"currency"`
	Status       AnalysisStatus             `gorm:"size:16;not null" json:"status"`
	Report       datatypes.JSON             `json:"report,omitempty"`
	Error        *string                    `gorm:"size:512" json:"error,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}

type ChargeRequest struct {
	FacilityID   snowflake.ID
	AnalysisType pricingdomain.AnalysisType
	Country      string
	Input        map[string]any
}

// Interpreter produces the clinical report for a paid analysis. The billing
// flow treats it as opaque: any error triggers a refund of the charge.
type Interpreter interface {
	Interpret(ctx context.Context, analysisType pricingdomain.AnalysisType, input map[string]any) ([]byte, error)
}

type Service interface {
	// Charge debits the resolved price, runs the interpreter, and refunds
	// the debit when interpretation fails. The analysis row records the
	// outcome either way.
	Charge(ctx context.Context, req ChargeRequest) (*Analysis, error)
	List(ctx context.Context, facilityID snowflake.ID) ([]Analysis, error)
}
