package projects

import (
	"context"
	"testing"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0xcB693B3Fe7FB2C44921B3D43779f8040B2f53AbD"

func setupService(t *testing.T) (*Service, uuid.UUID) {
	db := testdb.Open(t)
	w := wallet
	creator := domain.User{Fullname: "Cara Creator", Email: "cara@example.com", PasswordHash: "x", Role: "creator", WalletAddress: &w}
	require.NoError(t, db.Create(&creator).Error)
	return &Service{DB: db}, creator.UserID
}

func input() CreateInput {
	return CreateInput{
		Name:          "Solar Kiosk",
		Description:   "Pay-as-you-go charging",
		FundingAmount: decimal.RequireFromString("1"),
		EquityOffered: decimal.RequireFromString("10"),
	}
}

func TestCreate(t *testing.T) {
	s, creatorID := setupService(t)
	p, err := s.Create(context.Background(), creatorID, input())
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectDraft, p.Status)
	assert.Equal(t, wallet, p.CreatorWalletAddress)

	in := input()
	in.Status = domain.ProjectActive
	p, err = s.Create(context.Background(), creatorID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, p.Status)
}

func TestCreate_Invalid(t *testing.T) {
	s, creatorID := setupService(t)
	cases := map[string]func(*CreateInput){
		"zero funding":  func(in *CreateInput) { in.FundingAmount = decimal.Zero },
		"precision":     func(in *CreateInput) { in.FundingAmount = decimal.RequireFromString("1.0000001") },
		"equity > 100":  func(in *CreateInput) { in.EquityOffered = decimal.NewFromInt(101) },
		"missing name":  func(in *CreateInput) { in.Name = "" },
		"funded status": func(in *CreateInput) { in.Status = domain.ProjectFunded },
		"bad wallet":    func(in *CreateInput) { w := "0x12"; in.WalletAddress = &w },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := input()
			mutate(&in)
			_, err := s.Create(context.Background(), creatorID, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := s.Create(context.Background(), uuid.New(), input())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVisibilityAndListing(t *testing.T) {
	s, creatorID := setupService(t)
	ctx := context.Background()
	draft, err := s.Create(ctx, creatorID, input())
	require.NoError(t, err)
	in := input()
	in.Status = domain.ProjectActive
	active, err := s.Create(ctx, creatorID, in)
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = s.Get(ctx, stranger, draft.ProjectID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := s.Get(ctx, stranger, active.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, active.ProjectID, got.ProjectID)
	_, err = s.Get(ctx, creatorID, draft.ProjectID)
	assert.NoError(t, err)

	list, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mine, err := s.ListByCreator(ctx, creatorID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	found, err := s.FindMany(ctx, []uuid.UUID{draft.ProjectID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestUpdateAndLifecycle(t *testing.T) {
	s, creatorID := setupService(t)
	ctx := context.Background()
	p, err := s.Create(ctx, creatorID, input())
	require.NoError(t, err)

	name := "Solar Kiosk v2"
	updated, err := s.Update(ctx, creatorID, p.ProjectID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = s.Update(ctx, uuid.New(), p.ProjectID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = s.ChangeStatus(ctx, creatorID, p.ProjectID, domain.ProjectFunded)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	p, err = s.ChangeStatus(ctx, creatorID, p.ProjectID, domain.ProjectActive)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, p.Status)

	assert.ErrorIs(t, s.Delete(ctx, creatorID, p.ProjectID), domain.ErrIllegalTransition)

	require.NoError(t, s.MarkFunded(ctx, p.ProjectID))
	p, err = s.Find(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectFunded, p.Status)

	_, err = s.Update(ctx, creatorID, p.ProjectID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = s.ChangeStatus(ctx, creatorID, p.ProjectID, "archived")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteDraft(t *testing.T) {
	s, creatorID := setupService(t)
	ctx := context.Background()
	p, err := s.Create(ctx, creatorID, input())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, creatorID, p.ProjectID))
	_, err = s.Find(ctx, p.ProjectID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
