package domain

import (
	"net/url"
	"strings"
)

// Party identifies which side of a negotiation is acting.
type Party string

const (
	PartyInvestor Party = "investor"
	PartyCreator  Party = "creator"
)

// Stage is the negotiation step derived from a record's fields.
type Stage string

const (
	StageInitial         Stage = "initial"
	StageCalendlySet     Stage = "calendly_set"
	StageCallStatusSet   Stage = "call_status_set"
	StageDealStatusSet   Stage = "deal_status_set"
	StageMouUploadedBoth Stage = "mou_uploaded_both"
	StageSettled         Stage = "settled"
	StageWithdrawn       Stage = "withdrawn"
)

// Event types written to the investment event log.
const (
	EventCreated       = "CREATED"
	EventCalendlySet   = "CALENDLY_SET"
	EventCallStatusSet = "CALL_STATUS_SET"
	EventDealStatusSet = "DEAL_STATUS_SET"
	EventMouAttached   = "MOU_ATTACHED"
	EventFundsLocked   = "FUNDS_LOCKED"
	EventSettled       = "SETTLED"
	EventWithdrawn     = "WITHDRAWN"
	EventUpdated       = "UPDATED"

	// EventFundsReleased is announced to the creator; it changes no record field.
	EventFundsReleased = "FUNDS_RELEASED"
)

func (i *Investment) CurrentStage() Stage {
	switch {
	case i.Status == StatusCompleted:
		return StageSettled
	case i.Status == StatusCancelled:
		return StageWithdrawn
	case deref(i.CreatorMouURL) != "" && deref(i.InvestorMouURL) != "":
		return StageMouUploadedBoth
	case i.DealStatus != nil:
		return StageDealStatusSet
	case i.CallStatus != nil:
		return StageCallStatusSet
	case i.CalendlyLink != nil:
		return StageCalendlySet
	}
	return StageInitial
}

// Document is a stored MOU reference.
type Document struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	SHA256 string `json:"sha256"`
}

// Patch is a requested change to a negotiation record. Nil fields are left alone.
type Patch struct {
	CalendlyLink         *string
	CallStatus           *string
	DealStatus           *string
	CreatorMOU           *Document
	InvestorMOU          *Document
	ContractInvestmentID *string
	Status               *string
}

func (p Patch) IsEmpty() bool {
	return p.CalendlyLink == nil && p.CallStatus == nil && p.DealStatus == nil &&
		p.CreatorMOU == nil && p.InvestorMOU == nil && p.ContractInvestmentID == nil && p.Status == nil
}

// EventType names the transition a patch performs, most significant field first.
func (p Patch) EventType() string {
	switch {
	case p.Status != nil && *p.Status == StatusCompleted:
		return EventSettled
	case p.Status != nil && *p.Status == StatusCancelled:
		return EventWithdrawn
	case p.ContractInvestmentID != nil:
		return EventFundsLocked
	case p.CreatorMOU != nil || p.InvestorMOU != nil:
		return EventMouAttached
	case p.DealStatus != nil:
		return EventDealStatusSet
	case p.CallStatus != nil:
		return EventCallStatusSet
	case p.CalendlyLink != nil:
		return EventCalendlySet
	}
	return EventUpdated
}

// Apply validates p as performed by actor against the current state of i and
// returns the column updates it implies. Fields already holding the requested
// value produce no update. On success i reflects the patched state; on error i
// is left untouched.
func (i *Investment) Apply(actor Party, p Patch) (map[string]interface{}, error) {
	if actor != PartyInvestor && actor != PartyCreator {
		return nil, Forbiddenf("Only the investor or the project creator can act on this investment")
	}
	if p.IsEmpty() {
		return nil, Validationf("No changes requested")
	}
	if i.IsTerminal() {
		return nil, IllegalTransitionf("Investment is %s and can no longer change", i.Status)
	}

	next := *i
	updates := map[string]interface{}{}

	if p.CalendlyLink != nil {
		if actor != PartyInvestor {
			return nil, Forbiddenf("Only the investor can set the scheduling link")
		}
		link := strings.TrimSpace(*p.CalendlyLink)
		if !isHTTPURL(link) {
			return nil, Validationf("Scheduling link must be an absolute http(s) URL")
		}
		switch cur := deref(next.CalendlyLink); {
		case cur == link:
		case cur != "":
			return nil, IllegalTransitionf("Scheduling link is already set")
		default:
			next.CalendlyLink = strPtr(link)
			updates["calendly_link"] = link
		}
	}

	if p.CallStatus != nil {
		status := *p.CallStatus
		if status != CallScheduled && status != CallSuccessful {
			return nil, Validationf("Call status must be %q or %q", CallScheduled, CallSuccessful)
		}
		cur := deref(next.CallStatus)
		if cur == CallSuccessful && status == CallScheduled {
			return nil, IllegalTransitionf("Call status cannot go back from %q to %q", CallSuccessful, CallScheduled)
		}
		if cur != status {
			next.CallStatus = strPtr(status)
			updates["call_status"] = status
		}
	}

	if p.DealStatus != nil {
		status := *p.DealStatus
		if status != DealConfirmed && status != DealThinking {
			return nil, Validationf("Deal status must be %q or %q", DealConfirmed, DealThinking)
		}
		if next.CallStatus == nil {
			return nil, IllegalTransitionf("Deal status requires a call status first")
		}
		cur := deref(next.DealStatus)
		if cur == DealConfirmed && status != DealConfirmed && (next.hasAnyMOU() || next.FundsLocked()) {
			return nil, IllegalTransitionf("Deal cannot be reopened once documents are attached or funds are locked")
		}
		if cur != status {
			next.DealStatus = strPtr(status)
			updates["deal_status"] = status
		}
	}

	if p.CreatorMOU != nil {
		if actor != PartyCreator {
			return nil, Forbiddenf("Only the creator can attach the creator document")
		}
		if err := next.attachMOU(PartyCreator, *p.CreatorMOU, updates); err != nil {
			return nil, err
		}
	}
	if p.InvestorMOU != nil {
		if actor != PartyInvestor {
			return nil, Forbiddenf("Only the investor can attach the investor document")
		}
		if err := next.attachMOU(PartyInvestor, *p.InvestorMOU, updates); err != nil {
			return nil, err
		}
	}

	if p.ContractInvestmentID != nil {
		if actor != PartyInvestor {
			return nil, Forbiddenf("Only the investor can lock funds")
		}
		id := strings.TrimSpace(*p.ContractInvestmentID)
		if !isDigits(id) {
			return nil, Validationf("Contract investment id must be a non-negative integer")
		}
		if deref(next.DealStatus) != DealConfirmed {
			return nil, IllegalTransitionf("Funds can only be locked once the deal is confirmed")
		}
		switch cur := deref(next.ContractInvestmentID); {
		case cur == id:
		case cur != "":
			return nil, IllegalTransitionf("Funds are already locked under contract investment %s", cur)
		default:
			next.ContractInvestmentID = strPtr(id)
			updates["contract_investment_id"] = id
		}
	}

	if p.Status != nil {
		switch *p.Status {
		case StatusCompleted:
			if actor != PartyInvestor {
				return nil, Forbiddenf("Only the investor can accept the deal")
			}
			if missing := next.settlementGaps(); len(missing) > 0 {
				return nil, IllegalTransitionf("Investment cannot be completed: %s", strings.Join(missing, ", "))
			}
		case StatusCancelled:
			if next.FundsLocked() {
				return nil, IllegalTransitionf("Investment cannot be withdrawn after funds are locked")
			}
		default:
			return nil, Validationf("Status can only be set to %q or %q", StatusCompleted, StatusCancelled)
		}
		next.Status = *p.Status
		updates["status"] = *p.Status
	}

	next.Stage = next.CurrentStage()
	*i = next
	return updates, nil
}

// SettlementGaps lists the preconditions still missing before the record can complete.
func (i *Investment) SettlementGaps() []string {
	return i.settlementGaps()
}

func (i *Investment) settlementGaps() []string {
	var missing []string
	if deref(i.CallStatus) != CallSuccessful {
		missing = append(missing, "call not marked successful")
	}
	if deref(i.DealStatus) != DealConfirmed {
		missing = append(missing, "deal not confirmed")
	}
	if deref(i.CreatorMouURL) == "" {
		missing = append(missing, "creator document missing")
	}
	if deref(i.InvestorMouURL) == "" {
		missing = append(missing, "investor document missing")
	}
	if !i.FundsLocked() {
		missing = append(missing, "funds not locked")
	}
	return missing
}

func (i *Investment) attachMOU(side Party, doc Document, updates map[string]interface{}) error {
	if strings.TrimSpace(doc.URL) == "" {
		return Validationf("Document URL is required")
	}
	if deref(i.DealStatus) != DealConfirmed {
		return IllegalTransitionf("Documents can only be attached after the deal is confirmed")
	}
	urlField, keyField, hashField := &i.InvestorMouURL, &i.InvestorMouKey, &i.InvestorMouSHA256
	prefix := "investor_mou_"
	if side == PartyCreator {
		urlField, keyField, hashField = &i.CreatorMouURL, &i.CreatorMouKey, &i.CreatorMouSHA256
		prefix = "creator_mou_"
	}
	switch cur := deref(*urlField); {
	case cur == doc.URL:
		return nil
	case cur != "":
		return IllegalTransitionf("The %s document is already attached", side)
	}
	*urlField, *keyField, *hashField = strPtr(doc.URL), strPtr(doc.Key), strPtr(doc.SHA256)
	updates[prefix+"url"] = doc.URL
	updates[prefix+"key"] = doc.Key
	updates[prefix+"sha256"] = doc.SHA256
	return nil
}

func (i *Investment) hasAnyMOU() bool {
	return deref(i.CreatorMouURL) != "" || deref(i.InvestorMouURL) != ""
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
