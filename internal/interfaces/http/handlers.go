package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/funding-workflow/internal/application/service"
	"github.com/garyjia/funding-workflow/internal/application/workflow"
	"github.com/garyjia/funding-workflow/internal/domain/breakdown"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{
		deps:   deps,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitResponse is returned by POST /api/requests
type SubmitResponse struct {
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}

// ItemResponse is one line of a cost breakdown
type ItemResponse struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
}

// BreakdownResponse is the cost view of a request
type BreakdownResponse struct {
	Categories         map[string]string `json:"categories"`
	PrepaidItems       []ItemResponse    `json:"prepaid_items"`
	ReimbursementItems []ItemResponse    `json:"reimbursement_items"`
	PrepaidTotal       string            `json:"prepaid_total"`
	ReimbursementTotal string            `json:"reimbursement_total"`
	TotalCost          string            `json:"total_cost"`
}

// RequestResponse represents a funding request in API responses.
// The decision token is deliberately absent.
type RequestResponse struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	SubmittedBy   string            `json:"submitted_by"`
	SubmitterName string            `json:"submitter_name,omitempty"`
	SubmittedAt   string            `json:"submitted_at"`
	DecidedAt     *string           `json:"decided_at,omitempty"`
	Comments      string            `json:"comments,omitempty"`
	FormData      entity.FormData   `json:"form_data"`
	Breakdown     BreakdownResponse `json:"breakdown"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     "ok",
	}

	status := http.StatusOK
	if h.deps.Store != nil {
		if err := h.deps.Store.Ping(c.Request.Context()); err != nil {
			h.logger.Error("Store health check failed", "error", err)
			response.Status = "degraded"
			response.Store = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	requester := identityFrom(c)
	if requester == nil {
		h.jsonError(c, service.ErrUnauthenticated)
		return
	}

	var form entity.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.Error("Invalid submission body", "error", err)
		h.jsonError(c, service.Validation("request body must be a JSON object of form fields"))
		return
	}

	req, err := h.deps.Submissions.Submit(c.Request.Context(), requester, form)
	if err != nil {
		h.logger.Error("Submission failed", "submitted_by", requester.Email, "error", err)
		h.jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{
		RequestID: req.ID,
		Success:   true,
	})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, ok := h.loadVisible(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toRequestResponse(req),
	})
}

// DownloadPaymentSheet handles GET /api/requests/:id/payment-sheet
func (h *Handlers) DownloadPaymentSheet(c *gin.Context) {
	caller := identityFrom(c)
	if caller == nil {
		h.jsonError(c, service.ErrUnauthenticated)
		return
	}
	if !caller.HasRole(entity.RoleDisburser) {
		h.jsonError(c, service.ErrForbidden)
		return
	}

	req, err := h.deps.Submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.jsonError(c, err)
		return
	}
	if req.Status != domainwf.StateAccepted {
		h.jsonError(c, service.Validation("payment sheet is only available for accepted requests"))
		return
	}

	data, err := h.deps.PaymentSheet.Build(req, breakdown.Compute(req.FormData))
	if err != nil {
		h.logger.Error("Failed to build payment sheet", "request_id", req.ID, "error", err)
		h.jsonError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-payment.xlsx"`, req.ID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// loadVisible fetches :id for its owner, approvers and disbursers
func (h *Handlers) loadVisible(c *gin.Context) (*entity.FundingRequest, bool) {
	caller := identityFrom(c)
	if caller == nil {
		h.jsonError(c, service.ErrUnauthenticated)
		return nil, false
	}

	req, err := h.deps.Submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.jsonError(c, err)
		return nil, false
	}

	if req.SubmittedBy != caller.Email &&
		!caller.HasRole(entity.RoleApprover) &&
		!caller.HasRole(entity.RoleDisburser) {
		h.jsonError(c, service.ErrForbidden)
		return nil, false
	}
	return req, true
}

// DecisionForm handles GET /decide?requestId=&token=
func (h *Handlers) DecisionForm(c *gin.Context) {
	requestID := c.Query("requestId")
	token := c.Query("token")

	req, err := h.deps.Engine.Authorize(c.Request.Context(), requestID, token)
	if err != nil {
		h.renderDecisionError(c, requestID, err)
		return
	}
	if req.IsDecided() {
		h.renderDecisionError(c, requestID, errs.Wrapf(service.ErrAlreadyDecided, "status %s", req.Status))
		return
	}

	c.HTML(http.StatusOK, "decide_form", newDecisionPage(req, token))
}

// DecisionRequest is the URL-encoded body of POST /decide
type DecisionRequest struct {
	RequestID string `form:"requestId"`
	Token     string `form:"token"`
	Decision  string `form:"decision"`
	Comments  string `form:"comments"`
}

// Decide handles POST /decide
func (h *Handlers) Decide(c *gin.Context) {
	var body DecisionRequest
	if err := c.ShouldBind(&body); err != nil {
		h.renderDecisionError(c, "", service.Validation("malformed decision form"))
		return
	}

	result, err := h.deps.Engine.Decide(c.Request.Context(), workflow.DecideCommand{
		RequestID: body.RequestID,
		Token:     body.Token,
		Decision:  body.Decision,
		Comments:  body.Comments,
	})
	if err != nil {
		h.renderDecisionError(c, body.RequestID, err)
		return
	}

	c.HTML(http.StatusOK, "decide_result", gin.H{
		"Title":    fmt.Sprintf("Request %s: %s", result.Request.ID, result.Request.Status.Label()),
		"Message":  fmt.Sprintf("Your decision has been recorded and %s has been notified.", result.Request.SubmittedBy),
		"Comments": result.Request.Comments,
	})
}

func (h *Handlers) renderDecisionError(c *gin.Context, requestID string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Decision failed", "request_id", requestID, "error", err)
	}

	title := "Decision not recorded"
	if errs.Is(err, service.ErrAlreadyDecided) {
		title = "Already decided"
	}
	c.HTML(status, "decide_result", gin.H{
		"Title":   title,
		"Message": publicMessage(err),
	})
}

func (h *Handlers) jsonError(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{
		Success: false,
		Error:   publicMessage(err),
	})
}

type summaryRow struct {
	Label string
	Value string
}

type amountRow struct {
	Label  string
	Amount string
}

type decisionPage struct {
	Title              string
	RequestID          string
	Token              string
	Requester          string
	SubmittedAt        string
	Summary            []summaryRow
	Categories         []amountRow
	Total              string
	PrepaidTotal       string
	ReimbursementTotal string
}

func newDecisionPage(req *entity.FundingRequest, token string) decisionPage {
	bd := breakdown.Compute(req.FormData)

	page := decisionPage{
		Title:              fmt.Sprintf("Funding request %s", req.ID),
		RequestID:          req.ID,
		Token:              token,
		Requester:          req.SubmittedBy,
		SubmittedAt:        req.SubmittedAt.UTC().Format("2006-01-02"),
		Total:              breakdown.FormatMoney(bd.TotalCost),
		PrepaidTotal:       breakdown.FormatMoney(bd.PrepaidTotal),
		ReimbursementTotal: breakdown.FormatMoney(bd.ReimbursementTotal),
	}
	if req.SubmitterName != "" {
		page.Requester = fmt.Sprintf("%s <%s>", req.SubmitterName, req.SubmittedBy)
	}
	for _, f := range entity.SummaryFields {
		if v := req.FormData.String(f.Key); v != "" {
			page.Summary = append(page.Summary, summaryRow{Label: f.Label, Value: v})
		}
	}
	for _, cat := range breakdown.Order {
		page.Categories = append(page.Categories, amountRow{
			Label:  cat.Label(),
			Amount: breakdown.FormatMoney(bd.Amount(cat)),
		})
	}
	return page
}

func toItemResponses(items []breakdown.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			Category: string(it.Category),
			Label:    it.Label,
			Amount:   it.Amount.String(),
		})
	}
	return out
}

func toRequestResponse(req *entity.FundingRequest) RequestResponse {
	bd := breakdown.Compute(req.FormData)

	categories := make(map[string]string, len(bd.Categories))
	for cat, amount := range bd.Categories {
		categories[string(cat)] = amount.String()
	}

	resp := RequestResponse{
		ID:            req.ID,
		Status:        req.Status.String(),
		SubmittedBy:   req.SubmittedBy,
		SubmitterName: req.SubmitterName,
		SubmittedAt:   req.SubmittedAt.UTC().Format(time.RFC3339),
		Comments:      req.Comments,
		FormData:      req.FormData,
		Breakdown: BreakdownResponse{
			Categories:         categories,
			PrepaidItems:       toItemResponses(bd.PrepaidItems),
			ReimbursementItems: toItemResponses(bd.ReimbursementItems),
			PrepaidTotal:       bd.PrepaidTotal.String(),
			ReimbursementTotal: bd.ReimbursementTotal.String(),
			TotalCost:          bd.TotalCost.String(),
		},
	}

	if req.DecidedAt != nil {
		decidedAt := req.DecidedAt.UTC().Format(time.RFC3339)
		resp.DecidedAt = &decidedAt
	}

	return resp
}
