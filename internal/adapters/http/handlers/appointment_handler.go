package handlers

import (
	"casa-empenos/internal/adapters/http/middleware"
	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/core/services"
	"casa-empenos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AppointmentHandler handles appointment endpoints
type AppointmentHandler struct {
	appointmentService *services.AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointmentService *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
	}
}

// Book books an evaluation appointment
// @Summary Book appointment
// @Description Book a slot (date after today, HH:MM) optionally tied to one of the customer's loans
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BookAppointmentInput true "Slot"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *fiber.Ctx) error {
	var req services.BookAppointmentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	appt, err := h.appointmentService.Book(c.UserContext(), middleware.GetActor(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Appointment booked successfully", appt)
}

// GetMine returns the current customer's appointments
// @Summary My appointments
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) GetMine(c *fiber.Ctx) error {
	appts, err := h.appointmentService.ListMine(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Appointments retrieved successfully", appts)
}

// GetAll returns every appointment (admin)
// @Summary List appointments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/appointments [get]
func (h *AppointmentHandler) GetAll(c *fiber.Ctx) error {
	appts, err := h.appointmentService.ListAll(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Appointments retrieved successfully", appts)
}

// Transition confirms or rejects a pending appointment (admin)
// @Summary Confirm or reject appointment
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Param action path string true "confirm or reject"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/appointments/{id}/{action} [post]
func (h *AppointmentHandler) Transition(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	action := domain.AppointmentAction(c.Params("action"))
	appt, err := h.appointmentService.Transition(c.UserContext(), middleware.GetActor(c), id, action)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Appointment updated successfully", appt)
}
