package negotiation

import (
	"context"
	"errors"
	"math/big"
	"time"

	"ideanest-backend/internal/application/documents"
	"ideanest-backend/internal/application/investments"
	"ideanest-backend/internal/application/notifications"
	"ideanest-backend/internal/application/settlement"
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/locks"
	"ideanest-backend/internal/infrastructure/metrics"
	"ideanest-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Chain is the settlement capability the orchestrator drives. *settlement.Adapter implements it.
type Chain interface {
	Connected() bool
	Invest(ctx context.Context, creator string, amount decimal.Decimal) (*big.Int, *settlement.Receipt, error)
	ScheduleCall(ctx context.Context, id *big.Int) (*settlement.Receipt, error)
	ConfirmDeal(ctx context.Context, id *big.Int) (*settlement.Receipt, error)
	UploadMOU(ctx context.Context, id *big.Int, hash string) (*settlement.Receipt, error)
	ReleaseFunds(ctx context.Context, id *big.Int) (*settlement.Receipt, error)
	GetInvestment(ctx context.Context, id *big.Int) (*settlement.Investment, error)
}

// Documents stores MOU files. *documents.Service implements it.
type Documents interface {
	Upload(ctx context.Context, investmentID uuid.UUID, party domain.Party, f documents.Upload) (domain.Document, error)
	Link(ctx context.Context, key string) (string, error)
}

// Projects resolves the project behind a record.
type Projects interface {
	Find(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
	FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Project, error)
	MarkFunded(ctx context.Context, projectID uuid.UUID) error
}

// Users resolves notification recipients.
type Users interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Service runs the negotiation between an investor and a project creator:
// off-chain steps go through the record store, escrow steps through Chain.
type Service struct {
	Store     *investments.Store
	Projects  Projects
	Users     Users
	Documents Documents
	Chain     Chain
	Notifier  notifications.Notifier
	Metrics   *metrics.Registry
	// Locks serialises escrow steps per record. An in-process locker is used when nil.
	Locks locks.Locker

	// AttachRetry governs the record update after a document upload.
	// Zero value means 3 attempts with a 1s backoff.
	AttachRetry retry.Policy
}

func (s *Service) attachPolicy() retry.Policy {
	p := s.AttachRetry
	if p.Attempts == 0 {
		p.Attempts = 3
	}
	if p.Backoff == 0 {
		p.Backoff = time.Second
	}
	if p.Name == "" {
		p.Name = "attach_mou"
	}
	if p.Retryable == nil {
		p.Retryable = func(err error) bool { return !domain.IsDomain(err) }
	}
	return p
}

var localLocks = locks.NewLocal()

// exclusive runs fn while holding the record's escrow lease.
func (s *Service) exclusive(ctx context.Context, id uuid.UUID, fn func() error) error {
	l := s.Locks
	if l == nil {
		l = localLocks
	}
	release, err := l.Acquire(ctx, "investment:"+id.String())
	if errors.Is(err, locks.ErrHeld) {
		return domain.IllegalTransitionf("Another escrow step is in progress for this investment")
	}
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// load fetches a record and the caller's role on it.
func (s *Service) load(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, domain.Party, error) {
	inv, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	party := inv.PartyOf(userID)
	if party == "" {
		return nil, "", domain.Forbiddenf("Only the investor or the project creator can access this investment")
	}
	return inv, party, nil
}

// withLinks replaces the stored MOU URLs with links freshly issued from the
// stored keys. The stored URL is kept when a link cannot be issued.
func (s *Service) withLinks(ctx context.Context, inv *domain.Investment) {
	if s.Documents == nil {
		return
	}
	refresh := func(key, url **string) {
		if *key == nil || **key == "" {
			return
		}
		link, err := s.Documents.Link(ctx, **key)
		if err != nil {
			log.Warn().Err(err).Str("investment_id", inv.InvestmentID.String()).Str("key", **key).Msg("document link unavailable")
			return
		}
		*url = &link
	}
	refresh(&inv.CreatorMouKey, &inv.CreatorMouURL)
	refresh(&inv.InvestorMouKey, &inv.InvestorMouURL)
}

// update applies patch and announces the change to the counterparty.
func (s *Service) update(ctx context.Context, userID, id uuid.UUID, patch domain.Patch) (*domain.Investment, error) {
	before, party, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	after, err := s.Store.Update(ctx, id, investments.Actor{UserID: userID, Party: party}, patch)
	s.Metrics.Transition(patch.EventType(), metrics.ResultOf(err, domain.IsDomain))
	if err != nil {
		return nil, err
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		s.notify(ctx, after, party, patch.EventType(), "")
	}
	return after, nil
}

// notify tells the other party about a transition. Failures are logged only.
func (s *Service) notify(ctx context.Context, inv *domain.Investment, actor domain.Party, eventType, txHash string) {
	if s.Notifier == nil {
		return
	}
	recipientID := inv.CreatorID
	if actor == domain.PartyCreator {
		recipientID = inv.InvestorID
	}
	ev := notifications.Event{
		Type:         eventType,
		InvestmentID: inv.InvestmentID,
		ProjectID:    inv.ProjectID,
		ActorRole:    string(actor),
		Amount:       inv.Amount,
		Status:       inv.Status,
		Stage:        string(inv.CurrentStage()),
		TxHash:       txHash,
		Recipient:    notifications.Recipient{UserID: recipientID},
		OccurredAt:   time.Now().UTC(),
	}
	if s.Projects != nil {
		if p, err := s.Projects.Find(ctx, inv.ProjectID); err == nil {
			ev.ProjectName = p.Name
		}
	}
	if s.Users != nil {
		if u, err := s.Users.FindByID(ctx, recipientID); err == nil {
			ev.Recipient.Email, ev.Recipient.Fullname = u.Email, u.Fullname
		} else {
			log.Warn().Err(err).Str("user_id", recipientID.String()).Msg("notification recipient lookup failed")
		}
	}
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("investment_id", inv.InvestmentID.String()).
			Str("event", eventType).
			Msg("notification delivery failed")
	}
}
