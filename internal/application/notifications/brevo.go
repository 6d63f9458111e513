package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ideanest-backend/internal/domain"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo API v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// BrevoClient emails the counterparty through Brevo (Sendinblue). Without an API key it does nothing.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	// Endpoint overrides the Brevo send URL.
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@ideanest.app"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) Notify(ctx context.Context, ev Event) error {
	if c == nil || c.APIKey == "" || ev.Recipient.Email == "" {
		return nil
	}
	subject, content := render(ev)
	return c.send(ctx, ev.Recipient, subject, EmailLayout(content))
}

func (c *BrevoClient) send(ctx context.Context, to Recipient, subject, html string) error {
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "IdeaNest"},
		To:          []BrevoTo{{Email: to.Email, Name: to.Fullname}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: "support@ideanest.app", Name: "IdeaNest Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// render picks the subject line and body for an event.
func render(ev Event) (string, string) {
	project := EscapeHTML(ev.ProjectName)
	name := ev.Recipient.Fullname
	if name == "" {
		name = "there"
	}
	var subject, lead string
	switch ev.Type {
	case domain.EventCreated:
		subject = "New investment offer for " + ev.ProjectName
		lead = fmt.Sprintf("An investor offered <strong>%s EDU</strong> for <strong>%s</strong>.", ev.Amount.String(), project)
	case domain.EventCalendlySet:
		subject = "A call was proposed for " + ev.ProjectName
		lead = fmt.Sprintf("The investor shared a scheduling link for <strong>%s</strong>. Pick a slot to continue.", project)
	case domain.EventCallStatusSet:
		subject = "Call status updated for " + ev.ProjectName
		lead = fmt.Sprintf("The call for <strong>%s</strong> was updated by the %s.", project, EscapeHTML(ev.ActorRole))
	case domain.EventDealStatusSet:
		subject = "Deal status updated for " + ev.ProjectName
		lead = fmt.Sprintf("The %s updated the deal status for <strong>%s</strong>.", EscapeHTML(ev.ActorRole), project)
	case domain.EventMouAttached:
		subject = "MOU uploaded for " + ev.ProjectName
		lead = fmt.Sprintf("The %s uploaded the signed MOU for <strong>%s</strong>.", EscapeHTML(ev.ActorRole), project)
	case domain.EventFundsLocked:
		subject = "Funds locked in escrow for " + ev.ProjectName
		lead = fmt.Sprintf("<strong>%s EDU</strong> for <strong>%s</strong> are now held by the escrow contract.", ev.Amount.String(), project)
	case domain.EventSettled:
		subject = "Investment completed for " + ev.ProjectName
		lead = fmt.Sprintf("The investment of <strong>%s EDU</strong> in <strong>%s</strong> is complete.", ev.Amount.String(), project)
	case domain.EventWithdrawn:
		subject = "Investment withdrawn for " + ev.ProjectName
		lead = fmt.Sprintf("The %s withdrew from the negotiation for <strong>%s</strong>.", EscapeHTML(ev.ActorRole), project)
	default:
		subject = "Investment updated for " + ev.ProjectName
		lead = fmt.Sprintf("The negotiation for <strong>%s</strong> was updated.", project)
	}
	if ev.TxHash != "" {
		lead += fmt.Sprintf(" Transaction: <code>%s</code>.", EscapeHTML(ev.TxHash))
	}
	return subject, fmt.Sprintf(`
    <h1>%s</h1>
    <p>Hi %s,</p>
    <p>%s</p>
    <center>
      <a href="https://ideanest.app/investments/%s" class="nest-button">Open the negotiation</a>
    </center>
    <p>The IdeaNest Team</p>
`, EscapeHTML(subject), EscapeHTML(name), lead, ev.InvestmentID)
}
