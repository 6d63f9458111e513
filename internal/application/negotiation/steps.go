package negotiation

import (
	"context"

	"ideanest-backend/internal/application/documents"
	"ideanest-backend/internal/application/investments"
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/metrics"
	"ideanest-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Open creates a pending record for investorID against an active project.
func (s *Service) Open(ctx context.Context, investorID, projectID uuid.UUID, amount decimal.Decimal) (*domain.Investment, error) {
	inv, err := s.Store.Create(ctx, investments.CreateInput{
		ProjectID:  projectID,
		InvestorID: investorID,
		Amount:     amount,
	})
	s.Metrics.Transition(domain.EventCreated, metrics.ResultOf(err, domain.IsDomain))
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("investment_id", inv.InvestmentID.String()).
		Str("project_id", projectID.String()).
		Str("amount", amount.String()).
		Msg("investment opened")
	s.notify(ctx, inv, domain.PartyInvestor, domain.EventCreated, "")
	return inv, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	inv, _, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.withLinks(ctx, inv)
	return inv, nil
}

func (s *Service) Events(ctx context.Context, userID, id uuid.UUID) ([]domain.InvestmentEvent, error) {
	if _, _, err := s.load(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.Store.Events(ctx, id)
}

func (s *Service) Transactions(ctx context.Context, userID, id uuid.UUID) ([]domain.SettlementTx, error) {
	if _, _, err := s.load(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.Store.Transactions(ctx, id)
}

func (s *Service) SetCalendlyLink(ctx context.Context, userID, id uuid.UUID, link string) (*domain.Investment, error) {
	return s.update(ctx, userID, id, domain.Patch{CalendlyLink: &link})
}

func (s *Service) SetCallStatus(ctx context.Context, userID, id uuid.UUID, status string) (*domain.Investment, error) {
	return s.update(ctx, userID, id, domain.Patch{CallStatus: &status})
}

func (s *Service) SetDealStatus(ctx context.Context, userID, id uuid.UUID, status string) (*domain.Investment, error) {
	return s.update(ctx, userID, id, domain.Patch{DealStatus: &status})
}

// Withdraw cancels a pending record. It is refused once funds are locked in escrow.
func (s *Service) Withdraw(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	status := domain.StatusCancelled
	return s.update(ctx, userID, id, domain.Patch{Status: &status})
}

// UploadMOU stores the caller's signed MOU and attaches it to the record.
// The attach step is retried on its own; a failed attach leaves an orphaned
// object for the sweeper.
func (s *Service) UploadMOU(ctx context.Context, userID, id uuid.UUID, f documents.Upload) (*domain.Investment, error) {
	inv, party, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	// Check the transition before anything is stored.
	trial := *inv
	if _, err := trial.Apply(party, mouPatch(party, domain.Document{URL: "pending"})); err != nil {
		s.Metrics.Transition(domain.EventMouAttached, metrics.ResultOf(err, domain.IsDomain))
		return nil, err
	}

	doc, err := s.Documents.Upload(ctx, id, party, f)
	if err != nil {
		s.Metrics.Transition(domain.EventMouAttached, metrics.ResultOf(err, domain.IsDomain))
		return nil, err
	}

	actor := investments.Actor{UserID: userID, Party: party}
	var updated *domain.Investment
	err = retry.Do(ctx, s.attachPolicy(), func(ctx context.Context) error {
		var err error
		updated, err = s.Store.Update(ctx, id, actor, mouPatch(party, doc))
		return err
	})
	s.Metrics.Transition(domain.EventMouAttached, metrics.ResultOf(err, domain.IsDomain))
	if err != nil {
		log.Error().Err(err).
			Str("investment_id", id.String()).
			Str("key", doc.Key).
			Msg("document stored but not attached")
		return nil, err
	}
	s.notify(ctx, updated, party, domain.EventMouAttached, "")
	return updated, nil
}

func mouPatch(party domain.Party, doc domain.Document) domain.Patch {
	if party == domain.PartyCreator {
		return domain.Patch{CreatorMOU: &doc}
	}
	return domain.Patch{InvestorMOU: &doc}
}
