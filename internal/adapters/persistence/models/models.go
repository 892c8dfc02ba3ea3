package models

import (
	"time"

	"casa-empenos/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity Tables
// ============================================================

// Customer represents customers table (clientes)
type Customer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:120;not null" json:"name"`
	NationalID string    `gorm:"size:64;uniqueIndex;not null" json:"national_id"`
	Email      *string   `gorm:"size:100" json:"email"`
	Phone      *string   `gorm:"size:30" json:"phone"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Admin represents admins table
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// ============================================================
// Loan Tables
// ============================================================

// Loan represents loans table (empeños)
//
// CreatedAt is set by the lifecycle engine and reset on every renewal: it
// marks the start of the current accrual window, not the row's insert time.
type Loan struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	CustomerID      uint              `gorm:"not null;index" json:"customer_id"`
	ItemType        string            `gorm:"size:120;not null" json:"item_type"`
	Description     string            `gorm:"size:500;not null" json:"description"`
	ReferenceValue  float64           `gorm:"type:decimal(15,2);not null" json:"reference_value"`
	ConditionRatio  float64           `gorm:"type:decimal(5,4);not null" json:"condition_ratio"`
	InitialValue    int64             `gorm:"not null" json:"initial_value"`
	CurrentValue    int64             `gorm:"not null" json:"current_value"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	TermDays        int               `gorm:"not null;default:30" json:"term_days"`
	RenewalCount    int               `gorm:"not null;default:0" json:"renewal_count"`
	Status          domain.LoanStatus `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	AccruedInterest float64           `gorm:"type:decimal(15,2);default:0" json:"accrued_interest"`
	PaidAt          *time.Time        `json:"paid_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// OwnerNationalID returns the owning customer's national id, "" when the
// relation was not loaded.
func (l *Loan) OwnerNationalID() string {
	if l.Customer == nil {
		return ""
	}
	return l.Customer.NationalID
}

// IsPaid reports whether the loan reached the paid state
func (l *Loan) IsPaid() bool {
	return l.Status == domain.LoanStatusPaid
}

// LoanResponse DTO
type LoanResponse struct {
	ID              uint              `json:"id"`
	CustomerID      uint              `json:"customer_id"`
	NationalID      string            `json:"national_id,omitempty"`
	CustomerName    string            `json:"customer_name,omitempty"`
	ItemType        string            `json:"item_type"`
	Description     string            `json:"description"`
	InitialValue    int64             `json:"initial_value"`
	CurrentValue    int64             `json:"current_value"`
	RenewalCount    int               `json:"renewal_count"`
	TermDays        int               `json:"term_days"`
	Status          domain.LoanStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	DaysLeft        int               `json:"days_left"`
	AccruedInterest float64           `json:"accrued_interest"`
	Paid            bool              `json:"paid"`
	PaidAt          *time.Time        `json:"paid_at"`
}

// ToResponse builds the display view of a loan at instant now. For unpaid
// loans the interest is computed on the fly; paid loans show the stored value.
func (l *Loan) ToResponse(now time.Time) *LoanResponse {
	timeline := domain.DaysRemaining(l.CreatedAt, l.TermDays, now)

	resp := &LoanResponse{
		ID:           l.ID,
		CustomerID:   l.CustomerID,
		ItemType:     l.ItemType,
		Description:  l.Description,
		InitialValue: l.InitialValue,
		CurrentValue: l.CurrentValue,
		RenewalCount: l.RenewalCount,
		TermDays:     l.TermDays,
		Status:       l.Status,
		CreatedAt:    l.CreatedAt,
		ExpiresAt:    timeline.ExpiresAt,
		DaysLeft:     timeline.DaysLeft,
		Paid:         l.IsPaid(),
		PaidAt:       l.PaidAt,
	}

	if l.IsPaid() {
		resp.AccruedInterest = l.AccruedInterest
	} else {
		resp.AccruedInterest = domain.AccrueInterest(l.InitialValue, l.RenewalCount, l.CreatedAt, now)
	}

	if l.Customer != nil {
		resp.NationalID = l.Customer.NationalID
		resp.CustomerName = l.Customer.Name
	}

	return resp
}

// RenewalLog represents renewal_logs table (append-only)
type RenewalLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LoanID    uint      `gorm:"not null;index" json:"loan_id"`
	ActorID   string    `gorm:"size:64;not null" json:"actor_id"`
	ByAdmin   bool      `gorm:"not null;default:false" json:"by_admin"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	OldValue  int64     `gorm:"not null" json:"old_value"`
	NewValue  int64     `gorm:"not null" json:"new_value"`
}

func (RenewalLog) TableName() string {
	return "renewal_logs"
}

// PaymentLog represents payment_logs table (append-only)
type PaymentLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LoanID    uint      `gorm:"not null;uniqueIndex" json:"loan_id"`
	ActorID   string    `gorm:"size:64;not null" json:"actor_id"`
	ByAdmin   bool      `gorm:"not null;default:true" json:"by_admin"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Interest  float64   `gorm:"type:decimal(15,2);not null" json:"interest"`
}

func (PaymentLog) TableName() string {
	return "payment_logs"
}

// ============================================================
// Appointment Tables
// ============================================================

// Appointment represents appointments table
//
// ApptDate (YYYY-MM-DD) and ApptTime (HH:MM) are stored as text so a slot
// compares exactly regardless of the database timezone.
type Appointment struct {
	ID         uint                     `gorm:"primaryKey" json:"id"`
	CustomerID uint                     `gorm:"not null;index" json:"customer_id"`
	LoanID     *uint                    `gorm:"index" json:"loan_id"`
	ApptDate   string                   `gorm:"size:10;not null;index:idx_appt_slot" json:"appt_date"`
	ApptTime   string                   `gorm:"size:5;not null;index:idx_appt_slot" json:"appt_time"`
	Status     domain.AppointmentStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time                `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// HoldsSlot reports whether the appointment occupies its (date, time) slot
func (a *Appointment) HoldsSlot() bool {
	for _, s := range domain.SlotHoldingStatuses {
		if a.Status == s {
			return true
		}
	}
	return false
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{},
		&Admin{},
		&Loan{},
		&RenewalLog{},
		&PaymentLog{},
		&Appointment{},
	)
}
