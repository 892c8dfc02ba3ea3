package handlers

import (
	"casa-empenos/internal/adapters/http/middleware"
	"casa-empenos/internal/core/services"
	"casa-empenos/internal/pkg/pagination"
	"casa-empenos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CustomerHandler handles customer management endpoints
type CustomerHandler struct {
	customerService *services.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// GetAll lists registered customers (admin)
// @Summary List customers
// @Description List registered customers in registration order (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/customers [get]
func (h *CustomerHandler) GetAll(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	customers, total, err := h.customerService.ListCustomers(c.UserContext(), middleware.GetActor(c), params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, customers, params, total)
}
