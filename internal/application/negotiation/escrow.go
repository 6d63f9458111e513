package negotiation

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"ideanest-backend/internal/application/investments"
	"ideanest-backend/internal/application/settlement"
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (s *Service) requireChain() error {
	if s.Chain == nil || !s.Chain.Connected() {
		return domain.Errorf(domain.ErrWalletNotConnected, "Wallet is not connected")
	}
	return nil
}

func contractID(inv *domain.Investment) (*big.Int, error) {
	if !inv.FundsLocked() {
		return nil, domain.IllegalTransitionf("Funds are not locked on-chain for this investment")
	}
	return settlement.ParseInvestmentID(*inv.ContractInvestmentID)
}

// record writes a ledger entry for an on-chain call. A ledger failure is logged, not returned.
func (s *Service) record(ctx context.Context, inv *domain.Investment, actorID uuid.UUID, method, status string, cid *big.Int, rcpt *settlement.Receipt, callErr error) *domain.SettlementTx {
	entry := &domain.SettlementTx{
		InvestmentID: inv.InvestmentID,
		Method:       method,
		Status:       status,
		ActorID:      &actorID,
	}
	if cid != nil {
		v := cid.String()
		entry.ContractInvestmentID = &v
	}
	if rcpt != nil {
		hash, block := rcpt.TxHash, rcpt.BlockNumber
		entry.TxHash, entry.BlockNumber = &hash, &block
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.Error = &msg
	}
	if err := s.Store.RecordTx(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("investment_id", inv.InvestmentID.String()).
			Str("method", method).
			Msg("settlement ledger write failed")
	}
	return entry
}

func txStatus(err error) string {
	if err != nil {
		return domain.TxFailed
	}
	return domain.TxConfirmed
}

func rejectedByCaller(err error) bool {
	return errors.Is(err, domain.ErrWalletNotConnected) || errors.Is(err, domain.ErrNetworkMismatch) ||
		errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrIllegalTransition) || errors.Is(err, domain.ErrForbidden)
}

func requireInvestor(party domain.Party, action string) error {
	if party != domain.PartyInvestor {
		return domain.Forbiddenf("Only the investor can %s", action)
	}
	return nil
}

// LockFunds escrows the record's amount for the project creator and stores the
// contract-assigned investment id on the record. A confirmed invest already in
// the ledger is attached instead of sending a second one.
func (s *Service) LockFunds(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	var out *domain.Investment
	err := s.exclusive(ctx, id, func() error {
		var err error
		out, err = s.lockFunds(ctx, userID, id)
		return err
	})
	return out, err
}

func (s *Service) lockFunds(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	inv, party, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireInvestor(party, "lock funds"); err != nil {
		return nil, err
	}
	switch {
	case inv.Status != domain.StatusPending:
		return nil, domain.IllegalTransitionf("Investment is %s and can no longer change", inv.Status)
	case inv.FundsLocked():
		return nil, domain.IllegalTransitionf("Funds are already locked under contract investment %s", *inv.ContractInvestmentID)
	case inv.DealStatus == nil || *inv.DealStatus != domain.DealConfirmed:
		return nil, domain.IllegalTransitionf("Funds can only be locked once the deal is confirmed")
	}

	prior, err := s.Store.ConfirmedTx(ctx, id, domain.TxMethodInvest)
	if err != nil {
		return nil, err
	}
	var idStr, txHash string
	if prior != nil && prior.ContractInvestmentID != nil {
		idStr = *prior.ContractInvestmentID
		if prior.TxHash != nil {
			txHash = *prior.TxHash
		}
		log.Info().
			Str("investment_id", id.String()).
			Str("contract_investment_id", idStr).
			Msg("funds already locked on-chain, attaching ledger entry")
	} else {
		if err := s.requireChain(); err != nil {
			return nil, err
		}
		project, err := s.Projects.Find(ctx, inv.ProjectID)
		if err != nil {
			return nil, err
		}
		cid, rcpt, err := s.Chain.Invest(ctx, project.CreatorWalletAddress, inv.Amount)
		s.record(ctx, inv, userID, domain.TxMethodInvest, txStatus(err), cid, rcpt, err)
		if err != nil {
			s.Metrics.Transition(domain.EventFundsLocked, metrics.ResultOf(err, rejectedByCaller))
			return nil, err
		}
		idStr, txHash = cid.String(), rcpt.TxHash
	}

	updated, err := s.Store.Update(ctx, id, investments.Actor{UserID: userID, Party: party}, domain.Patch{ContractInvestmentID: &idStr})
	s.Metrics.Transition(domain.EventFundsLocked, metrics.ResultOf(err, rejectedByCaller))
	if err != nil {
		log.Error().Err(err).
			Str("investment_id", id.String()).
			Str("contract_investment_id", idStr).
			Str("tx_hash", txHash).
			Msg("funds locked on-chain but record update failed")
		return nil, err
	}
	s.notify(ctx, updated, party, domain.EventFundsLocked, txHash)
	return updated, nil
}

// RecordCallOnChain marks the call as scheduled on the escrow contract.
func (s *Service) RecordCallOnChain(ctx context.Context, userID, id uuid.UUID) (*domain.SettlementTx, error) {
	inv, _, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.CallStatus == nil {
		return nil, domain.IllegalTransitionf("Call status must be set before it is recorded on-chain")
	}
	cid, err := contractID(inv)
	if err != nil {
		return nil, err
	}
	if err := s.requireChain(); err != nil {
		return nil, err
	}
	rcpt, err := s.Chain.ScheduleCall(ctx, cid)
	entry := s.record(ctx, inv, userID, domain.TxMethodScheduleCall, txStatus(err), cid, rcpt, err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AnchorMOU records the hash of the caller's attached MOU on the escrow contract.
func (s *Service) AnchorMOU(ctx context.Context, userID, id uuid.UUID) (*domain.SettlementTx, error) {
	inv, party, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	hash := inv.InvestorMouSHA256
	if party == domain.PartyCreator {
		hash = inv.CreatorMouSHA256
	}
	if hash == nil || *hash == "" {
		return nil, domain.IllegalTransitionf("Upload your MOU before anchoring it on-chain")
	}
	cid, err := contractID(inv)
	if err != nil {
		return nil, err
	}
	if err := s.requireChain(); err != nil {
		return nil, err
	}
	rcpt, err := s.Chain.UploadMOU(ctx, cid, *hash)
	entry := s.record(ctx, inv, userID, domain.TxMethodUploadMOU, txStatus(err), cid, rcpt, err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Settle confirms the deal on-chain and completes the record. It is safe to
// repeat: a completed record is returned as is, and confirmDeal is skipped when
// the contract already reports the deal as confirmed.
func (s *Service) Settle(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	var out *domain.Investment
	err := s.exclusive(ctx, id, func() error {
		var err error
		out, err = s.settle(ctx, userID, id)
		return err
	})
	return out, err
}

func (s *Service) settle(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	inv, party, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireInvestor(party, "accept the deal"); err != nil {
		return nil, err
	}
	if inv.Status == domain.StatusCompleted {
		return inv, nil
	}
	if inv.IsTerminal() {
		return nil, domain.IllegalTransitionf("Investment is %s and can no longer change", inv.Status)
	}
	if gaps := inv.SettlementGaps(); len(gaps) > 0 {
		return nil, domain.IllegalTransitionf("Investment cannot be completed: %s", strings.Join(gaps, ", "))
	}
	if err := s.requireChain(); err != nil {
		return nil, err
	}
	cid, err := contractID(inv)
	if err != nil {
		return nil, err
	}

	onChain, err := s.Chain.GetInvestment(ctx, cid)
	if err != nil {
		return nil, &domain.TransactionError{Op: "investments", Reason: "could not read escrow state", Err: err}
	}
	var txHash string
	if onChain.DealConfirmed {
		s.record(ctx, inv, userID, domain.TxMethodConfirmDeal, domain.TxSkipped, cid, nil, nil)
		log.Info().Str("investment_id", id.String()).Str("contract_investment_id", cid.String()).Msg("deal already confirmed on-chain")
	} else {
		rcpt, err := s.Chain.ConfirmDeal(ctx, cid)
		s.record(ctx, inv, userID, domain.TxMethodConfirmDeal, txStatus(err), cid, rcpt, err)
		if err != nil {
			s.Metrics.Transition(domain.EventSettled, metrics.ResultOf(err, rejectedByCaller))
			return nil, err
		}
		txHash = rcpt.TxHash
	}

	status := domain.StatusCompleted
	updated, err := s.Store.Update(ctx, id, investments.Actor{UserID: userID, Party: party}, domain.Patch{Status: &status})
	s.Metrics.Transition(domain.EventSettled, metrics.ResultOf(err, rejectedByCaller))
	if err != nil {
		log.Error().Err(err).
			Str("investment_id", id.String()).
			Str("contract_investment_id", cid.String()).
			Msg("deal confirmed on-chain but record update failed")
		return nil, err
	}

	s.markFundedIfReached(ctx, updated)
	s.notify(ctx, updated, party, domain.EventSettled, txHash)
	return updated, nil
}

// markFundedIfReached moves the project to funded once completed investments cover its ask.
func (s *Service) markFundedIfReached(ctx context.Context, inv *domain.Investment) {
	project, err := s.Projects.Find(ctx, inv.ProjectID)
	if err != nil {
		log.Warn().Err(err).Str("project_id", inv.ProjectID.String()).Msg("funded check: project lookup failed")
		return
	}
	total, err := s.Store.CompletedTotal(ctx, inv.ProjectID)
	if err != nil {
		log.Warn().Err(err).Str("project_id", inv.ProjectID.String()).Msg("funded check: total failed")
		return
	}
	if project.Status != domain.ProjectActive || total.LessThan(project.FundingAmount) {
		return
	}
	if err := s.Projects.MarkFunded(ctx, inv.ProjectID); err != nil {
		log.Warn().Err(err).Str("project_id", inv.ProjectID.String()).Msg("mark project funded failed")
		return
	}
	log.Info().Str("project_id", inv.ProjectID.String()).Str("total", total.String()).Msg("project funded")
}

// ReleaseFunds pays the escrowed amount out to the creator, once, after completion.
func (s *Service) ReleaseFunds(ctx context.Context, userID, id uuid.UUID) (*domain.SettlementTx, error) {
	var out *domain.SettlementTx
	err := s.exclusive(ctx, id, func() error {
		var err error
		out, err = s.releaseFunds(ctx, userID, id)
		return err
	})
	return out, err
}

func (s *Service) releaseFunds(ctx context.Context, userID, id uuid.UUID) (*domain.SettlementTx, error) {
	inv, party, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireInvestor(party, "release funds"); err != nil {
		return nil, err
	}
	if inv.Status != domain.StatusCompleted {
		return nil, domain.IllegalTransitionf("Funds can only be released after the investment is completed")
	}
	released, err := s.Store.HasConfirmedTx(ctx, id, domain.TxMethodReleaseFunds)
	if err != nil {
		return nil, err
	}
	if released {
		return nil, domain.IllegalTransitionf("Funds were already released")
	}
	cid, err := contractID(inv)
	if err != nil {
		return nil, err
	}
	if err := s.requireChain(); err != nil {
		return nil, err
	}
	rcpt, err := s.Chain.ReleaseFunds(ctx, cid)
	entry := s.record(ctx, inv, userID, domain.TxMethodReleaseFunds, txStatus(err), cid, rcpt, err)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, inv, party, domain.EventFundsReleased, rcpt.TxHash)
	return entry, nil
}
