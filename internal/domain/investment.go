package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	CallScheduled  = "scheduled"
	CallSuccessful = "successful"

	DealConfirmed = "confirmed"
	DealThinking  = "thinking"
)

// MaxAmountDecimals is the input precision that survives base-unit conversion losslessly.
const MaxAmountDecimals = 6

// Investment is the negotiation record between one investor and one project.
// CreatorID is copied from the project at creation.
type Investment struct {
	InvestmentID         uuid.UUID       `gorm:"column:investment_id;type:uuid;primaryKey" json:"investment_id"`
	ProjectID            uuid.UUID       `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	InvestorID           uuid.UUID       `gorm:"column:investor_id;type:uuid;not null;index" json:"investor_id"`
	CreatorID            uuid.UUID       `gorm:"column:creator_id;type:uuid;not null;index" json:"creator_id"`
	Amount               decimal.Decimal `gorm:"column:amount;type:decimal(36,18);not null" json:"amount"`
	Status               string          `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	CalendlyLink         *string         `gorm:"column:calendly_link" json:"calendly_link"`
	CallStatus           *string         `gorm:"column:call_status;type:varchar(20)" json:"call_status"`
	DealStatus           *string         `gorm:"column:deal_status;type:varchar(20)" json:"deal_status"`
	CreatorMouURL        *string         `gorm:"column:creator_mou_url" json:"creator_mou_url"`
	CreatorMouKey        *string         `gorm:"column:creator_mou_key" json:"creator_mou_key"`
	CreatorMouSHA256     *string         `gorm:"column:creator_mou_sha256;type:varchar(64)" json:"creator_mou_sha256"`
	InvestorMouURL       *string         `gorm:"column:investor_mou_url" json:"investor_mou_url"`
	InvestorMouKey       *string         `gorm:"column:investor_mou_key" json:"investor_mou_key"`
	InvestorMouSHA256    *string         `gorm:"column:investor_mou_sha256;type:varchar(64)" json:"investor_mou_sha256"`
	ContractInvestmentID *string         `gorm:"column:contract_investment_id" json:"contract_investment_id"`
	CreatedAt            time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt            time.Time       `gorm:"column:updatedAt" json:"updatedAt"`

	Stage Stage `gorm:"-" json:"stage"`
}

func (Investment) TableName() string {
	return "Investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.InvestmentID == uuid.Nil {
		i.InvestmentID = uuid.New()
	}
	return nil
}

func (i *Investment) AfterFind(tx *gorm.DB) error {
	i.Stage = i.CurrentStage()
	return nil
}

func (i *Investment) IsTerminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusCancelled
}

func (i *Investment) FundsLocked() bool {
	return i.ContractInvestmentID != nil && *i.ContractInvestmentID != ""
}

// PartyOf returns the role userID plays on this record, or "" when it is not a party.
func (i *Investment) PartyOf(userID uuid.UUID) Party {
	switch userID {
	case i.InvestorID:
		return PartyInvestor
	case i.CreatorID:
		return PartyCreator
	}
	return ""
}

// ValidateAmount checks an investment amount against the project's funding ask.
func ValidateAmount(amount, fundingAsk decimal.Decimal) error {
	if !amount.IsPositive() {
		return Validationf("Amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(MaxAmountDecimals)) {
		return Validationf("Amount supports at most %d decimal places", MaxAmountDecimals)
	}
	if amount.GreaterThan(fundingAsk) {
		return Validationf("Amount %s exceeds the funding ask of %s", amount.String(), fundingAsk.String())
	}
	return nil
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
