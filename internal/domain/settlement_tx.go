package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TxMethodInvest       = "invest"
	TxMethodScheduleCall = "scheduleCall"
	TxMethodConfirmDeal  = "confirmDeal"
	TxMethodUploadMOU    = "uploadMOU"
	TxMethodReleaseFunds = "releaseFunds"

	TxConfirmed = "confirmed"
	TxFailed    = "failed"
	TxSkipped   = "skipped"
)

// SettlementTx is the ledger entry for one on-chain call made on behalf of an investment.
type SettlementTx struct {
	TxID                 uuid.UUID  `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	InvestmentID         uuid.UUID  `gorm:"column:investment_id;type:uuid;not null;index" json:"investment_id"`
	Method               string     `gorm:"column:method;type:varchar(20);not null" json:"method"`
	ContractInvestmentID *string    `gorm:"column:contract_investment_id" json:"contract_investment_id"`
	TxHash               *string    `gorm:"column:tx_hash;type:varchar(66)" json:"tx_hash"`
	BlockNumber          *uint64    `gorm:"column:block_number" json:"block_number"`
	Status               string     `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Error                *string    `gorm:"column:error" json:"error"`
	ActorID              *uuid.UUID `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	CreatedAt            time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt            time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (SettlementTx) TableName() string {
	return "SettlementTxs"
}

func (t *SettlementTx) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
