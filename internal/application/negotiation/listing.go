package negotiation

import (
	"context"
	"sort"

	"ideanest-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Listing is a record joined with its project for the dashboards.
type Listing struct {
	domain.Investment
	Project *domain.Project `json:"project"`
}

var statusPriority = map[string]int{
	domain.StatusPending:   0,
	domain.StatusCompleted: 1,
	domain.StatusCancelled: 2,
}

func validStatusFilter(status string) error {
	if status == "" {
		return nil
	}
	if _, ok := statusPriority[status]; !ok {
		return domain.Validationf("Status filter must be one of pending, completed, cancelled")
	}
	return nil
}

// ListForInvestor returns the investor's records, optionally filtered by status.
func (s *Service) ListForInvestor(ctx context.Context, investorID uuid.UUID, status string) ([]Listing, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	rows, err := s.Store.ListByInvestor(ctx, investorID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, rows, status)
}

// ListForCreator returns the offers received on all of the creator's projects.
func (s *Service) ListForCreator(ctx context.Context, creatorID uuid.UUID, status string) ([]Listing, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	rows, err := s.Store.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, rows, status)
}

// ListForProject returns the offers on one project. Only its creator may list them.
func (s *Service) ListForProject(ctx context.Context, userID, projectID uuid.UUID, status string) ([]Listing, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	project, err := s.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != userID {
		return nil, domain.Forbiddenf("Only the project creator can view its investments")
	}
	rows, err := s.Store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, rows, status)
}

// join attaches projects, drops records whose project is gone and sorts
// pending first, then completed, then cancelled, newest first within each.
func (s *Service) join(ctx context.Context, rows []domain.Investment, status string) ([]Listing, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProjectID)
	}
	projects, err := s.Projects.FindMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(rows))
	for _, r := range rows {
		if status != "" && r.Status != status {
			continue
		}
		p, ok := projects[r.ProjectID]
		if !ok {
			log.Warn().
				Str("investment_id", r.InvestmentID.String()).
				Str("project_id", r.ProjectID.String()).
				Msg("dropping investment with missing project")
			continue
		}
		out = append(out, Listing{Investment: r, Project: p})
	}
	for i := range out {
		s.withLinks(ctx, &out[i].Investment)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := statusPriority[out[i].Status], statusPriority[out[j].Status]
		if pi != pj {
			return pi < pj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
