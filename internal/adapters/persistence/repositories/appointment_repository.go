package repositories

import (
	"context"
	"errors"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// appointmentRepository implements AppointmentRepository interface
type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create creates a new appointment
func (r *appointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return domain.Storage(r.db.WithContext(ctx).Omit("Customer").Create(appt).Error, "appointment create")
}

// GetByID gets an appointment by ID
func (r *appointmentRepository) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).Preload("Customer").Where("id = ?", id).First(&appt).Error
	if err != nil {
		return nil, notFoundOr(err, domain.ErrAppointmentNotFound, "appointment get")
	}
	return &appt, nil
}

// Update saves an appointment
func (r *appointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	return domain.Storage(r.db.WithContext(ctx).Omit("Customer").Save(appt).Error, "appointment update")
}

// ListByCustomer gets a customer's appointments by slot
func (r *appointmentRepository) ListByCustomer(ctx context.Context, customerID uint) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("appt_date ASC").
		Order("appt_time ASC").
		Find(&appts).Error
	return appts, domain.Storage(err, "appointment list by customer")
}

// List lists all appointments by slot
func (r *appointmentRepository) List(ctx context.Context) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Order("appt_date ASC").
		Order("appt_time ASC").
		Find(&appts).Error
	return appts, domain.Storage(err, "appointment list")
}

// FindConflictingSlot finds an appointment holding the slot across all customers
func (r *appointmentRepository) FindConflictingSlot(ctx context.Context, date, time string, statuses []domain.AppointmentStatus) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).
		Where("appt_date = ? AND appt_time = ?", date, time).
		Where("status IN ?", statuses).
		First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage(err, "appointment slot lookup")
	}
	return &appt, nil
}

// CountByStatus counts appointments in a status
func (r *appointmentRepository) CountByStatus(ctx context.Context, status domain.AppointmentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Appointment{}).Where("status = ?", status).Count(&count).Error
	return count, domain.Storage(err, "appointment count")
}
