package investments

import (
	"io"
	"mime/multipart"

	"ideanest-backend/internal/application/documents"
	"ideanest-backend/internal/application/negotiation"
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/interfaces/handlers/handlerutil"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers exposes the negotiation orchestrator over HTTP.
type Handlers struct {
	Service *negotiation.Service
}

type openRequest struct {
	ProjectID uuid.UUID       `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type calendlyRequest struct {
	CalendlyLink string `json:"calendly_link"`
}

type callStatusRequest struct {
	CallStatus string `json:"call_status"`
}

type dealStatusRequest struct {
	DealStatus string `json:"deal_status"`
}

// actorAndID resolves the caller and the :id parameter shared by every record route.
func actorAndID(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := handlerutil.ParamUUID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, id, nil
}

func investment(c *fiber.Ctx, message string, inv *domain.Investment, err error) error {
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, message, fiber.Map{"investment": inv}, nil)
}

func listings(c *fiber.Ctx, rows []negotiation.Listing, err error) error {
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Investments retrieved successfully", fiber.Map{"investments": rows}, fiber.Map{"count": len(rows)})
}

// Open POST /api/v1/investments
func (h *Handlers) Open(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req openRequest
	if err := handlerutil.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	if req.ProjectID == uuid.Nil {
		return response.FromError(c, domain.Validationf("project_id is required"))
	}
	inv, err := h.Service.Open(c.UserContext(), userID, req.ProjectID, req.Amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Investment created successfully", fiber.Map{"investment": inv}, nil)
}

// ListMine GET /api/v1/investments/mine?status=
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.ListForInvestor(c.UserContext(), userID, c.Query("status"))
	return listings(c, rows, err)
}

// ListIncoming GET /api/v1/investments/incoming?status=
func (h *Handlers) ListIncoming(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.ListForCreator(c.UserContext(), userID, c.Query("status"))
	return listings(c, rows, err)
}

// ListForProject GET /api/v1/projects/:id/investments?status=
func (h *Handlers) ListForProject(c *fiber.Ctx) error {
	userID, projectID, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.ListForProject(c.UserContext(), userID, projectID, c.Query("status"))
	return listings(c, rows, err)
}

// Get GET /api/v1/investments/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.Get(c.UserContext(), userID, id)
	return investment(c, "Investment retrieved successfully", inv, err)
}

// Events GET /api/v1/investments/:id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	events, err := h.Service.Events(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Investment events retrieved successfully", fiber.Map{"events": events}, fiber.Map{"count": len(events)})
}

// Transactions GET /api/v1/investments/:id/transactions
func (h *Handlers) Transactions(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	txs, err := h.Service.Transactions(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Settlement transactions retrieved successfully", fiber.Map{"transactions": txs}, fiber.Map{"count": len(txs)})
}

// SetCalendlyLink PATCH /api/v1/investments/:id/calendly
func (h *Handlers) SetCalendlyLink(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req calendlyRequest
	if err := handlerutil.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.SetCalendlyLink(c.UserContext(), userID, id, req.CalendlyLink)
	return investment(c, "Calendly link updated", inv, err)
}

// SetCallStatus PATCH /api/v1/investments/:id/call-status
func (h *Handlers) SetCallStatus(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req callStatusRequest
	if err := handlerutil.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.SetCallStatus(c.UserContext(), userID, id, req.CallStatus)
	return investment(c, "Call status updated", inv, err)
}

// SetDealStatus PATCH /api/v1/investments/:id/deal-status
func (h *Handlers) SetDealStatus(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req dealStatusRequest
	if err := handlerutil.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.SetDealStatus(c.UserContext(), userID, id, req.DealStatus)
	return investment(c, "Deal status updated", inv, err)
}

// UploadMOU POST /api/v1/investments/:id/documents with a multipart "file" field.
func (h *Handlers) UploadMOU(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return response.FromError(c, domain.Validationf("file is required"))
	}
	upload, err := readUpload(fh)
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.UploadMOU(c.UserContext(), userID, id, upload)
	return investment(c, "MOU uploaded successfully", inv, err)
}

// readUpload reads at most one byte past the limit so oversize files are still
// reported by the document service with their declared size.
func readUpload(fh *multipart.FileHeader) (documents.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return documents.Upload{}, domain.Errorf(domain.ErrUpload, "Could not read uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, documents.MaxSize+1))
	if err != nil {
		return documents.Upload{}, domain.Errorf(domain.ErrUpload, "Could not read uploaded file")
	}
	return documents.Upload{
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}

// Withdraw POST /api/v1/investments/:id/withdraw
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.Withdraw(c.UserContext(), userID, id)
	return investment(c, "Investment withdrawn", inv, err)
}

// LockFunds POST /api/v1/investments/:id/chain/lock-funds
func (h *Handlers) LockFunds(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.LockFunds(c.UserContext(), userID, id)
	return investment(c, "Funds locked in escrow", inv, err)
}

// ScheduleCall POST /api/v1/investments/:id/chain/schedule-call
func (h *Handlers) ScheduleCall(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	tx, err := h.Service.RecordCallOnChain(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Call recorded on-chain", fiber.Map{"transaction": tx}, nil)
}

// AnchorMOU POST /api/v1/investments/:id/chain/anchor-mou
func (h *Handlers) AnchorMOU(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	tx, err := h.Service.AnchorMOU(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "MOU hash anchored on-chain", fiber.Map{"transaction": tx}, nil)
}

// ReleaseFunds POST /api/v1/investments/:id/chain/release-funds
func (h *Handlers) ReleaseFunds(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	tx, err := h.Service.ReleaseFunds(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Funds released to the creator", fiber.Map{"transaction": tx}, nil)
}

// Settle POST /api/v1/investments/:id/settle
func (h *Handlers) Settle(c *fiber.Ctx) error {
	userID, id, err := actorAndID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.Settle(c.UserContext(), userID, id)
	return investment(c, "Investment settled", inv, err)
}
