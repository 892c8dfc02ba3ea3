package handlers

import (
	"strconv"

	"casa-empenos/internal/adapters/http/middleware"
	"casa-empenos/internal/core/services"
	"casa-empenos/internal/pkg/pagination"
	"casa-empenos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// Quote appraises an item without creating a loan
// @Summary Appraise item
// @Description Estimate the loan value for an item without persisting it
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.QuoteInput true "Item data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /loans/quote [post]
func (h *LoanHandler) Quote(c *fiber.Ctx) error {
	var req services.QuoteInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	req.ConditionRatio = services.NormalizeCondition(req.ConditionRatio)

	quote, err := h.loanService.Quote(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quote calculated successfully", quote)
}

// Create creates a loan for the current customer
// @Summary Create loan
// @Description Appraise an item and open a loan for the current customer
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.QuoteInput true "Item data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req services.QuoteInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	req.ConditionRatio = services.NormalizeCondition(req.ConditionRatio)

	loan, err := h.loanService.Create(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Loan created successfully", loan.ToResponse(loan.CreatedAt))
}

// GetMyLoans returns the current customer's loans
// @Summary My loans
// @Description List the current customer's loans with days left and accrued interest
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /loans/my [get]
func (h *LoanHandler) GetMyLoans(c *fiber.Ctx) error {
	loans, err := h.loanService.ListMine(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loans retrieved successfully", loans)
}

// GetByID returns a loan
// @Summary Get loan
// @Description Get a loan owned by the current customer, or any loan for admins
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	loan, err := h.loanService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan retrieved successfully", loan)
}

// Renew renews a loan
// @Summary Renew loan
// @Description Increase the loan value by 5% (owner or admin)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/renew [post]
func (h *LoanHandler) Renew(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	actor := middleware.GetActor(c)
	if _, err := h.loanService.Renew(c.UserContext(), actor, id); err != nil {
		return response.FromError(c, err)
	}

	loan, err := h.loanService.Get(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan renewed successfully", loan)
}

// GetAll returns all loans (admin)
// @Summary List loans
// @Description List every loan, newest first (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/loans [get]
func (h *LoanHandler) GetAll(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.ListAll(c.UserContext(), middleware.GetActor(c), params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, loans, params, total)
}

// Reject deletes an unrenewed, unpaid loan (admin)
// @Summary Reject loan
// @Description Delete a loan that was never renewed nor paid (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.loanService.Reject(c.UserContext(), middleware.GetActor(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan rejected successfully", fiber.Map{"id": id})
}

// MarkPaid registers the payment of a loan (admin)
// @Summary Mark loan paid
// @Description Record the payment and freeze the accrued interest (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/loans/{id}/pay [post]
func (h *LoanHandler) MarkPaid(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	result, err := h.loanService.MarkPaid(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan marked as paid", result)
}

// GetRenewals returns the renewal log (admin)
// @Summary Renewal history
// @Description List recent renewals, newest first (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Response
// @Router /admin/renewals [get]
func (h *LoanHandler) GetRenewals(c *fiber.Ctx) error {
	entries, err := h.loanService.RenewalHistory(c.UserContext(), middleware.GetActor(c), queryLimit(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Renewals retrieved successfully", entries)
}

// GetPayments returns the payment log (admin)
// @Summary Payment history
// @Description List recent payments, newest first (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Response
// @Router /admin/payments [get]
func (h *LoanHandler) GetPayments(c *fiber.Ctx) error {
	entries, err := h.loanService.PaymentHistory(c.UserContext(), middleware.GetActor(c), queryLimit(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payments retrieved successfully", entries)
}

// queryLimit reads ?limit, zero when absent or malformed
func queryLimit(c *fiber.Ctx) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}
