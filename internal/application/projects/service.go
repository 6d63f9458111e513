package projects

import (
	"context"
	"errors"
	"strings"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Service manages creator projects.
type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description" validate:"required"`
	ImageURL      *string         `json:"image_url" validate:"omitempty,http_url"`
	GithubLink    *string         `json:"github_link" validate:"omitempty,http_url"`
	FundingAmount decimal.Decimal `json:"funding_amount"`
	EquityOffered decimal.Decimal `json:"equity_offered"`
	// WalletAddress overrides the creator's profile wallet.
	WalletAddress *string `json:"wallet_address" validate:"omitempty,ethaddr"`
	Status        string  `json:"status" validate:"omitempty,oneof=draft active"`
}

type UpdateInput struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitempty,min=1"`
	ImageURL      *string          `json:"image_url" validate:"omitempty,http_url"`
	GithubLink    *string          `json:"github_link" validate:"omitempty,http_url"`
	FundingAmount *decimal.Decimal `json:"funding_amount"`
	EquityOffered *decimal.Decimal `json:"equity_offered"`
	WalletAddress *string          `json:"wallet_address" validate:"omitempty,ethaddr"`
}

func validateTerms(funding, equity decimal.Decimal) error {
	if !funding.IsPositive() {
		return domain.Validationf("funding_amount must be greater than zero")
	}
	if !funding.Equal(funding.Round(domain.MaxAmountDecimals)) {
		return domain.Validationf("funding_amount supports at most %d decimal places", domain.MaxAmountDecimals)
	}
	if !equity.IsPositive() || equity.GreaterThan(hundred) {
		return domain.Validationf("equity_offered must be greater than 0 and at most 100")
	}
	if !equity.Equal(equity.Round(2)) {
		return domain.Validationf("equity_offered supports at most 2 decimal places")
	}
	return nil
}

// Create lists a new project for creatorID. The creator's wallet comes from the
// input or, failing that, their profile.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, in CreateInput) (*domain.Project, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validateTerms(in.FundingAmount, in.EquityOffered); err != nil {
		return nil, err
	}

	wallet := ""
	if in.WalletAddress != nil {
		wallet = *in.WalletAddress
	} else {
		var creator domain.User
		if err := s.DB.WithContext(ctx).Where("user_id = ?", creatorID).First(&creator).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NotFoundf("Creator profile not found")
			}
			return nil, err
		}
		if creator.WalletAddress != nil {
			wallet = *creator.WalletAddress
		}
	}
	if wallet == "" {
		return nil, domain.Validationf("A wallet address is required to receive funds")
	}

	status := in.Status
	if status == "" {
		status = domain.ProjectDraft
	}
	p := &domain.Project{
		CreatorID:            creatorID,
		CreatorWalletAddress: wallet,
		Name:                 strings.TrimSpace(in.Name),
		Description:          strings.TrimSpace(in.Description),
		ImageURL:             in.ImageURL,
		GithubLink:           in.GithubLink,
		FundingAmount:        in.FundingAmount,
		EquityOffered:        in.EquityOffered,
		Status:               status,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Update edits an owned project that is still open (draft or active).
func (s *Service) Update(ctx context.Context, creatorID, projectID uuid.UUID, in UpdateInput) (*domain.Project, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.owned(ctx, creatorID, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.ProjectFunded || p.Status == domain.ProjectClosed {
		return nil, domain.IllegalTransitionf("Project is %s and can no longer be edited", p.Status)
	}

	funding, equity := p.FundingAmount, p.EquityOffered
	if in.FundingAmount != nil {
		funding = *in.FundingAmount
	}
	if in.EquityOffered != nil {
		equity = *in.EquityOffered
	}
	if err := validateTerms(funding, equity); err != nil {
		return nil, err
	}

	upd := map[string]interface{}{}
	if in.Name != nil {
		upd["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		upd["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		upd["image_url"] = *in.ImageURL
	}
	if in.GithubLink != nil {
		upd["github_link"] = *in.GithubLink
	}
	if in.FundingAmount != nil {
		upd["funding_amount"] = funding
	}
	if in.EquityOffered != nil {
		upd["equity_offered"] = equity
	}
	if in.WalletAddress != nil {
		upd["creator_wallet_address"] = *in.WalletAddress
	}
	if len(upd) == 0 {
		return nil, domain.Validationf("No valid update fields provided")
	}
	if err := s.DB.WithContext(ctx).Model(p).Updates(upd).Error; err != nil {
		return nil, err
	}
	return s.find(ctx, projectID)
}

// Get returns a project. Owners see every status; everyone else only active projects.
func (s *Service) Get(ctx context.Context, viewerID, projectID uuid.UUID) (*domain.Project, error) {
	p, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != viewerID && p.Status != domain.ProjectActive {
		return nil, domain.NotFoundf("Project not found")
	}
	return p, nil
}

// Find loads a project regardless of viewer.
func (s *Service) Find(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return s.find(ctx, projectID)
}

// FindMany loads projects by id; missing ids are simply absent from the result.
func (s *Service) FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Project, error) {
	out := make(map[uuid.UUID]*domain.Project, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ProjectID] = &rows[i]
	}
	return out, nil
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Project, error) {
	var rows []domain.Project
	err := s.DB.WithContext(ctx).Where("status = ?", domain.ProjectActive).Order(`"createdAt" DESC`).Find(&rows).Error
	return rows, err
}

func (s *Service) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Project, error) {
	var rows []domain.Project
	err := s.DB.WithContext(ctx).Where("creator_id = ?", creatorID).Order(`"createdAt" DESC`).Find(&rows).Error
	return rows, err
}

// ChangeStatus moves an owned project along its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, creatorID, projectID uuid.UUID, status string) (*domain.Project, error) {
	if !domain.IsValidProjectStatus(status) {
		return nil, domain.Validationf("status must be one of: draft active funded closed")
	}
	p, err := s.owned(ctx, creatorID, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}
	if !p.CanMoveTo(status) {
		return nil, domain.IllegalTransitionf("Project cannot move from %s to %s", p.Status, status)
	}
	if err := s.DB.WithContext(ctx).Model(p).Update("status", status).Error; err != nil {
		return nil, err
	}
	p.Status = status
	return p, nil
}

// MarkFunded moves an active project to funded. Used by settlement; other statuses are left alone.
func (s *Service) MarkFunded(ctx context.Context, projectID uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&domain.Project{}).
		Where("project_id = ? AND status = ?", projectID, domain.ProjectActive).
		Update("status", domain.ProjectFunded).Error
}

// Delete removes an owned draft.
func (s *Service) Delete(ctx context.Context, creatorID, projectID uuid.UUID) error {
	p, err := s.owned(ctx, creatorID, projectID)
	if err != nil {
		return err
	}
	if p.Status != domain.ProjectDraft {
		return domain.IllegalTransitionf("Only draft projects can be deleted")
	}
	return s.DB.WithContext(ctx).Delete(p).Error
}

func (s *Service) find(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("Project not found")
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) owned(ctx context.Context, creatorID, projectID uuid.UUID) (*domain.Project, error) {
	p, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != creatorID {
		return nil, domain.Forbiddenf("Only the project creator can manage this project")
	}
	return p, nil
}
