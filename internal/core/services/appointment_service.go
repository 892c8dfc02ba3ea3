package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/core/domain"
	"casa-empenos/internal/pkg/metrics"

	"go.uber.org/zap"
)

const appointmentDateLayout = "2006-01-02"

var appointmentTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// AppointmentService handles evaluation appointment booking
type AppointmentService struct {
	store    repositories.Store
	clock    Clock
	location *time.Location
	logger   *zap.Logger
}

// NewAppointmentService creates a new appointment service. "Today" is
// evaluated in location (UTC when nil).
func NewAppointmentService(store repositories.Store, clock Clock, location *time.Location, logger *zap.Logger) *AppointmentService {
	if clock == nil {
		clock = SystemClock{}
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		store:    store,
		clock:    clock,
		location: location,
		logger:   logger.Named("appointments"),
	}
}

// BookAppointmentInput represents booking input
type BookAppointmentInput struct {
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time" validate:"required"`
	LoanID *uint  `json:"loan_id,omitempty"`
}

// validateSlot checks that date is strictly after today and time is HH:MM
func (s *AppointmentService) validateSlot(date, hhmm string) error {
	day, err := time.ParseInLocation(appointmentDateLayout, date, s.location)
	if err != nil {
		return domain.ErrInvalidDate
	}
	now := s.clock.Now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	if !day.After(today) {
		return domain.ErrInvalidDate
	}
	if !appointmentTimePattern.MatchString(hhmm) {
		return domain.ErrInvalidTime
	}
	return nil
}

// Book creates a pending appointment for the acting customer
func (s *AppointmentService) Book(ctx context.Context, actor domain.Actor, input *BookAppointmentInput) (appt *models.Appointment, err error) {
	defer func() { s.record("book", err) }()

	if err := domain.RequireCustomer(actor); err != nil {
		return nil, err
	}

	date := strings.TrimSpace(input.Date)
	hhmm := strings.TrimSpace(input.Time)
	if err := s.validateSlot(date, hhmm); err != nil {
		return nil, err
	}

	err = s.store.Execute(ctx, func(repos repositories.Repositories) error {
		if input.LoanID != nil {
			loan, err := repos.Loans().GetByID(ctx, *input.LoanID)
			if err != nil {
				return err
			}
			if !actor.Owns(loan.OwnerNationalID()) {
				return domain.ErrForbidden
			}
		}

		taken, err := repos.Appointments().FindConflictingSlot(ctx, date, hhmm, domain.SlotHoldingStatuses)
		if err != nil {
			return err
		}
		if taken != nil {
			return domain.ErrSlotTaken
		}

		appt = &models.Appointment{
			CustomerID: actor.CustomerID(),
			LoanID:     input.LoanID,
			ApptDate:   date,
			ApptTime:   hhmm,
			Status:     domain.AppointmentPending,
			CreatedAt:  s.clock.Now(),
		}
		return repos.Appointments().Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.Uint("appointment_id", appt.ID),
		zap.String("actor", actor.AuditID()),
		zap.String("slot", date+" "+hhmm),
	)
	return appt, nil
}

// Transition applies an admin decision to a pending appointment
func (s *AppointmentService) Transition(ctx context.Context, actor domain.Actor, appointmentID uint, action domain.AppointmentAction) (appt *models.Appointment, err error) {
	defer func() { s.record("transition", err) }()

	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	err = s.store.Execute(ctx, func(repos repositories.Repositories) error {
		var err error
		appt, err = repos.Appointments().GetByID(ctx, appointmentID)
		if err != nil {
			return err
		}

		target, ok := action.Target()
		if !ok || appt.Status != domain.AppointmentPending {
			return domain.ErrInvalidAction
		}

		appt.Status = target
		return repos.Appointments().Update(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment transitioned",
		zap.Uint("appointment_id", appt.ID),
		zap.String("status", string(appt.Status)),
		zap.String("actor", actor.AuditID()),
	)
	return appt, nil
}

// ListMine lists the acting customer's appointments
func (s *AppointmentService) ListMine(ctx context.Context, actor domain.Actor) ([]*models.Appointment, error) {
	if err := domain.RequireCustomer(actor); err != nil {
		return nil, err
	}
	appts, err := s.store.Appointments().ListByCustomer(ctx, actor.CustomerID())
	if err != nil {
		return nil, s.logStorage(err, "list customer appointments")
	}
	return appts, nil
}

// ListAll lists every appointment by slot
func (s *AppointmentService) ListAll(ctx context.Context, actor domain.Actor) ([]*models.Appointment, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	appts, err := s.store.Appointments().List(ctx)
	if err != nil {
		return nil, s.logStorage(err, "list appointments")
	}
	return appts, nil
}

func (s *AppointmentService) record(operation string, err error) {
	metrics.RecordAppointmentOperation(operation, outcome(err))
	s.logStorage(err, operation)
}

func (s *AppointmentService) logStorage(err error, operation string) error {
	if domain.KindOf(err) == domain.KindStorage {
		s.logger.Error("storage failure", zap.String("operation", operation), zap.Error(err))
	}
	return err
}
