package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProjectDraft  = "draft"
	ProjectActive = "active"
	ProjectFunded = "funded"
	ProjectClosed = "closed"
)

// projectTransitions lists the allowed lifecycle moves.
var projectTransitions = map[string][]string{
	ProjectDraft:  {ProjectActive, ProjectClosed},
	ProjectActive: {ProjectFunded, ProjectClosed},
	ProjectFunded: {ProjectClosed},
}

// Project is a creator's funding ask.
type Project struct {
	ProjectID            uuid.UUID       `gorm:"column:project_id;type:uuid;primaryKey" json:"project_id"`
	CreatorID            uuid.UUID       `gorm:"column:creator_id;type:uuid;not null;index" json:"creator_id"`
	CreatorWalletAddress string          `gorm:"column:creator_wallet_address;not null" json:"creator_wallet_address"`
	Name                 string          `gorm:"column:name;not null" json:"name"`
	Description          string          `gorm:"column:description;type:text;not null" json:"description"`
	ImageURL             *string         `gorm:"column:image_url" json:"image_url"`
	GithubLink           *string         `gorm:"column:github_link" json:"github_link"`
	FundingAmount        decimal.Decimal `gorm:"column:funding_amount;type:decimal(36,18);not null" json:"funding_amount"`
	EquityOffered        decimal.Decimal `gorm:"column:equity_offered;type:decimal(5,2);not null" json:"equity_offered"`
	Status               string          `gorm:"column:status;type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt            time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt            time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Project) TableName() string {
	return "Projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	return nil
}

// CanMoveTo reports whether the lifecycle allows p.Status -> next.
func (p *Project) CanMoveTo(next string) bool {
	for _, s := range projectTransitions[p.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func IsValidProjectStatus(s string) bool {
	switch s {
	case ProjectDraft, ProjectActive, ProjectFunded, ProjectClosed:
		return true
	}
	return false
}
