package investments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ideanest-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists negotiation records and their event log.
type Store struct {
	DB *gorm.DB
}

// Actor identifies who performs a change, for the event log.
type Actor struct {
	UserID uuid.UUID
	Party  domain.Party
}

// CreateInput opens a negotiation.
type CreateInput struct {
	ProjectID  uuid.UUID
	InvestorID uuid.UUID
	Amount     decimal.Decimal
}

// Create validates the amount against the project's ask and inserts a pending record.
func (s *Store) Create(ctx context.Context, in CreateInput) (*domain.Investment, error) {
	var inv *domain.Investment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Where("project_id = ?", in.ProjectID).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundf("Project not found")
			}
			return err
		}
		if project.Status != domain.ProjectActive {
			return domain.Validationf("Project is not open for investment")
		}
		if project.CreatorID == in.InvestorID {
			return domain.Validationf("Creators cannot invest in their own project")
		}
		if err := domain.ValidateAmount(in.Amount, project.FundingAmount); err != nil {
			return err
		}

		inv = &domain.Investment{
			ProjectID:  in.ProjectID,
			InvestorID: in.InvestorID,
			CreatorID:  project.CreatorID,
			Amount:     in.Amount,
			Status:     domain.StatusPending,
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		return appendEvent(tx, inv.InvestmentID, domain.EventCreated, map[string]interface{}{
			"project_id": in.ProjectID.String(),
			"amount":     in.Amount.String(),
		}, Actor{UserID: in.InvestorID, Party: domain.PartyInvestor})
	})
	if err != nil {
		return nil, err
	}
	inv.Stage = inv.CurrentStage()
	return inv, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	return get(s.DB.WithContext(ctx), id)
}

func get(db *gorm.DB, id uuid.UUID) (*domain.Investment, error) {
	var inv domain.Investment
	if err := db.Where("investment_id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("Investment not found")
		}
		return nil, err
	}
	return &inv, nil
}

// Update applies patch as actor inside one transaction: the record is locked,
// the patch is checked against the state machine, the merged fields are written
// with a fresh updatedAt and an event row is appended. A patch that changes
// nothing returns the current record without writing.
func (s *Store) Update(ctx context.Context, id uuid.UUID, actor Actor, patch domain.Patch) (*domain.Investment, error) {
	var out *domain.Investment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		inv, err := get(q, id)
		if err != nil {
			return err
		}
		updates, err := inv.Apply(actor.Party, patch)
		if err != nil {
			return err
		}
		out = inv
		if len(updates) == 0 {
			return nil
		}
		now := time.Now()
		updates["updatedAt"] = now
		if err := tx.Model(&domain.Investment{}).Where("investment_id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		inv.UpdatedAt = now
		payload := make(map[string]interface{}, len(updates))
		for k, v := range updates {
			if k != "updatedAt" {
				payload[k] = v
			}
		}
		return appendEvent(tx, id, patch.EventType(), payload, actor)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Investment, error) {
	return s.list(ctx, "project_id = ?", projectID)
}

func (s *Store) ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.Investment, error) {
	return s.list(ctx, "investor_id = ?", investorID)
}

func (s *Store) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Investment, error) {
	return s.list(ctx, "creator_id = ?", creatorID)
}

func (s *Store) list(ctx context.Context, cond string, arg interface{}) ([]domain.Investment, error) {
	var rows []domain.Investment
	err := s.DB.WithContext(ctx).Where(cond, arg).Find(&rows).Error
	return rows, err
}

// CompletedTotal sums the completed investments of a project.
func (s *Store) CompletedTotal(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	var rows []domain.Investment
	err := s.DB.WithContext(ctx).Select("amount").
		Where("project_id = ? AND status = ?", projectID, domain.StatusCompleted).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total, nil
}

// ReferencedKeys returns the storage keys of every attached document.
func (s *Store) ReferencedKeys(ctx context.Context) (map[string]bool, error) {
	var rows []domain.Investment
	err := s.DB.WithContext(ctx).Select("creator_mou_key", "investor_mou_key").
		Where("creator_mou_key IS NOT NULL OR investor_mou_key IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(rows)*2)
	for _, r := range rows {
		if r.CreatorMouKey != nil {
			keys[*r.CreatorMouKey] = true
		}
		if r.InvestorMouKey != nil {
			keys[*r.InvestorMouKey] = true
		}
	}
	return keys, nil
}

// Events returns the event log of a record, oldest first.
func (s *Store) Events(ctx context.Context, id uuid.UUID) ([]domain.InvestmentEvent, error) {
	var rows []domain.InvestmentEvent
	err := s.DB.WithContext(ctx).Where("investment_id = ?", id).Order(`"createdAt" ASC`).Find(&rows).Error
	return rows, err
}

// RecordTx appends an entry to the settlement ledger.
func (s *Store) RecordTx(ctx context.Context, entry *domain.SettlementTx) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

// Transactions returns the settlement ledger of a record, oldest first.
func (s *Store) Transactions(ctx context.Context, id uuid.UUID) ([]domain.SettlementTx, error) {
	var rows []domain.SettlementTx
	err := s.DB.WithContext(ctx).Where("investment_id = ?", id).Order(`"createdAt" ASC`).Find(&rows).Error
	return rows, err
}

// HasConfirmedTx reports whether method already succeeded on-chain for the record.
func (s *Store) HasConfirmedTx(ctx context.Context, id uuid.UUID, method string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.SettlementTx{}).
		Where("investment_id = ? AND method = ? AND status = ?", id, method, domain.TxConfirmed).
		Count(&n).Error
	return n > 0, err
}

// ConfirmedTx returns the latest confirmed ledger entry for method, or nil.
func (s *Store) ConfirmedTx(ctx context.Context, id uuid.UUID, method string) (*domain.SettlementTx, error) {
	var rows []domain.SettlementTx
	err := s.DB.WithContext(ctx).
		Where("investment_id = ? AND method = ? AND status = ?", id, method, domain.TxConfirmed).
		Order(`"createdAt" DESC`).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func appendEvent(tx *gorm.DB, id uuid.UUID, eventType string, data map[string]interface{}, actor Actor) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ev := domain.InvestmentEvent{
		InvestmentID: id,
		EventType:    eventType,
		EventData:    datatypes.JSON(b),
	}
	if actor.UserID != uuid.Nil {
		uid := actor.UserID
		ev.ActorID = &uid
	}
	if actor.Party != "" {
		role := string(actor.Party)
		ev.ActorRole = &role
	}
	return tx.Create(&ev).Error
}
