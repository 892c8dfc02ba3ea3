package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/core/domain"
)

var _ repositories.Store = (*memStore)(nil)

// memStore is an in-memory repositories.Store. Execute snapshots the state
// and restores it when fn fails, mirroring a transaction rollback.
type memStore struct {
	mu     sync.Mutex
	state  memState
	failOn map[string]error
}

type memState struct {
	nextID    uint
	customers map[uint]models.Customer
	admins    map[uint]models.Admin
	loans     map[uint]models.Loan
	renewals  []models.RenewalLog
	payments  []models.PaymentLog
	appts     map[uint]models.Appointment
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			customers: map[uint]models.Customer{},
			admins:    map[uint]models.Admin{},
			loans:     map[uint]models.Loan{},
			appts:     map[uint]models.Appointment{},
		},
		failOn: map[string]error{},
	}
}

func (st memState) clone() memState {
	out := memState{
		nextID:    st.nextID,
		customers: make(map[uint]models.Customer, len(st.customers)),
		admins:    make(map[uint]models.Admin, len(st.admins)),
		loans:     make(map[uint]models.Loan, len(st.loans)),
		renewals:  append([]models.RenewalLog(nil), st.renewals...),
		payments:  append([]models.PaymentLog(nil), st.payments...),
		appts:     make(map[uint]models.Appointment, len(st.appts)),
	}
	for k, v := range st.customers {
		out.customers[k] = v
	}
	for k, v := range st.admins {
		out.admins[k] = v
	}
	for k, v := range st.loans {
		out.loans[k] = v
	}
	for k, v := range st.appts {
		out.appts[k] = v
	}
	return out
}

// fail makes the named operation return a storage failure
func (s *memStore) fail(op string) {
	s.failOn[op] = domain.Storage(errors.New("injected failure"), op)
}

func (s *memStore) check(op string) error {
	return s.failOn[op]
}

func (s *memStore) id() uint {
	s.state.nextID++
	return s.state.nextID
}

func (s *memStore) Execute(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) Customers() repositories.CustomerRepository       { return memCustomers{s} }
func (s *memStore) Admins() repositories.AdminRepository             { return memAdmins{s} }
func (s *memStore) Loans() repositories.LoanRepository               { return memLoans{s} }
func (s *memStore) Renewals() repositories.RenewalLogRepository      { return memRenewals{s} }
func (s *memStore) Payments() repositories.PaymentLogRepository      { return memPayments{s} }
func (s *memStore) Appointments() repositories.AppointmentRepository { return memAppointments{s} }

// ---- seeding helpers ----

func (s *memStore) addCustomer(name, nationalID string) *models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Customer{ID: s.id(), Name: name, NationalID: nationalID}
	s.state.customers[c.ID] = c
	return &c
}

func (s *memStore) addLoan(l models.Loan) *models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		l.ID = s.id()
	}
	l.Customer = nil
	s.state.loans[l.ID] = l
	return &l
}

func (s *memStore) loan(id uint) (models.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.loans[id]
	return l, ok
}

func (s *memStore) renewalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.renewals)
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.payments)
}

func (s *memStore) appointment(id uint) (models.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.appts[id]
	return a, ok
}

// ---- customers ----

type memCustomers struct{ s *memStore }

func (r memCustomers) Create(ctx context.Context, c *models.Customer) error {
	if err := r.s.check("customers.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.state.customers {
		if existing.NationalID == c.NationalID {
			return domain.ErrDuplicateCustomer
		}
	}
	c.ID = r.s.id()
	r.s.state.customers[c.ID] = *c
	return nil
}

func (r memCustomers) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.state.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (r memCustomers) GetByNationalID(ctx context.Context, nationalID string) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.state.customers {
		if c.NationalID == nationalID {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r memCustomers) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	_, err := r.GetByNationalID(ctx, nationalID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r memCustomers) List(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error) {
	if err := r.s.check("customers.list"); err != nil {
		return nil, 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*models.Customer, 0, len(r.s.state.customers))
	for _, c := range r.s.state.customers {
		c := c
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []*models.Customer{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r memCustomers) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.state.customers)), nil
}

// ---- admins ----

type memAdmins struct{ s *memStore }

func (r memAdmins) Create(ctx context.Context, a *models.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	r.s.state.admins[a.ID] = *a
	return nil
}

func (r memAdmins) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.state.admins {
		if a.Username == username {
			a := a
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memAdmins) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.state.admins)), nil
}

// ---- loans ----

type memLoans struct{ s *memStore }

// withCustomer returns a detached copy of l with its customer attached.
// Callers must hold the lock.
func (r memLoans) withCustomer(l models.Loan) *models.Loan {
	if c, ok := r.s.state.customers[l.CustomerID]; ok {
		l.Customer = &c
	}
	return &l
}

func (r memLoans) Create(ctx context.Context, l *models.Loan) error {
	if err := r.s.check("loans.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id()
	stored := *l
	stored.Customer = nil
	r.s.state.loans[l.ID] = stored
	return nil
}

func (r memLoans) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	if err := r.s.check("loans.get"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.state.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return r.withCustomer(l), nil
}

func (r memLoans) sorted(keep func(models.Loan) bool) []*models.Loan {
	var out []*models.Loan
	for _, l := range r.s.state.loans {
		if keep(l) {
			out = append(out, r.withCustomer(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memLoans) ListByCustomer(ctx context.Context, customerID uint) ([]*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(l models.Loan) bool { return l.CustomerID == customerID }), nil
}

func (r memLoans) List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(models.Loan) bool { return true })
	total := int64(len(all))
	if offset >= len(all) {
		return []*models.Loan{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r memLoans) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(l models.Loan) bool { return l.Status == status }), nil
}

func (r memLoans) Update(ctx context.Context, l *models.Loan) error {
	if err := r.s.check("loans.update"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.loans[l.ID]; !ok {
		return domain.ErrLoanNotFound
	}
	stored := *l
	stored.Customer = nil
	r.s.state.loans[l.ID] = stored
	return nil
}

func (r memLoans) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.state.loans, id)
	return nil
}

func (r memLoans) CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, l := range r.s.state.loans {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memLoans) SumCurrentValue(ctx context.Context, status domain.LoanStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, l := range r.s.state.loans {
		if l.Status == status {
			sum += l.CurrentValue
		}
	}
	return sum, nil
}

// ---- renewal log ----

type memRenewals struct{ s *memStore }

func (r memRenewals) Create(ctx context.Context, e *models.RenewalLog) error {
	if err := r.s.check("renewals.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	r.s.state.renewals = append(r.s.state.renewals, *e)
	return nil
}

func (r memRenewals) LatestByLoan(ctx context.Context, loanID uint) (*models.RenewalLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.RenewalLog
	for i := range r.s.state.renewals {
		e := r.s.state.renewals[i]
		if e.LoanID != loanID {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) ||
			(e.CreatedAt.Equal(latest.CreatedAt) && e.ID > latest.ID) {
			latest = &e
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (r memRenewals) ListRecent(ctx context.Context, limit int) ([]*models.RenewalLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.RenewalLog
	for i := len(r.s.state.renewals) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.state.renewals[i]
		out = append(out, &e)
	}
	return out, nil
}

func (r memRenewals) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.state.renewals)), nil
}

// ---- payment log ----

type memPayments struct{ s *memStore }

func (r memPayments) Create(ctx context.Context, e *models.PaymentLog) error {
	if err := r.s.check("payments.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	r.s.state.payments = append(r.s.state.payments, *e)
	return nil
}

func (r memPayments) ExistsByLoan(ctx context.Context, loanID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.state.payments {
		if e.LoanID == loanID {
			return true, nil
		}
	}
	return false, nil
}

func (r memPayments) ListRecent(ctx context.Context, limit int) ([]*models.PaymentLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PaymentLog
	for i := len(r.s.state.payments) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.state.payments[i]
		out = append(out, &e)
	}
	return out, nil
}

func (r memPayments) Totals(ctx context.Context) (int64, float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var amount int64
	var interest float64
	for _, e := range r.s.state.payments {
		amount += e.Amount
		interest += e.Interest
	}
	return amount, interest, nil
}

// ---- appointments ----

type memAppointments struct{ s *memStore }

func (r memAppointments) Create(ctx context.Context, a *models.Appointment) error {
	if err := r.s.check("appointments.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	stored := *a
	stored.Customer = nil
	r.s.state.appts[a.ID] = stored
	return nil
}

func (r memAppointments) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.state.appts[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r memAppointments) Update(ctx context.Context, a *models.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *a
	stored.Customer = nil
	r.s.state.appts[a.ID] = stored
	return nil
}

func (r memAppointments) list(keep func(models.Appointment) bool) []*models.Appointment {
	var out []*models.Appointment
	for _, a := range r.s.state.appts {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ApptDate != out[j].ApptDate {
			return out[i].ApptDate < out[j].ApptDate
		}
		return out[i].ApptTime < out[j].ApptTime
	})
	return out
}

func (r memAppointments) ListByCustomer(ctx context.Context, customerID uint) ([]*models.Appointment, error) {
	if err := r.s.check("appointments.list"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(a models.Appointment) bool { return a.CustomerID == customerID }), nil
}

func (r memAppointments) List(ctx context.Context) ([]*models.Appointment, error) {
	if err := r.s.check("appointments.list"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(models.Appointment) bool { return true }), nil
}

func (r memAppointments) FindConflictingSlot(ctx context.Context, date, hhmm string, statuses []domain.AppointmentStatus) (*models.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.state.appts {
		if a.ApptDate != date || a.ApptTime != hhmm {
			continue
		}
		for _, st := range statuses {
			if a.Status == st {
				a := a
				return &a, nil
			}
		}
	}
	return nil, nil
}

func (r memAppointments) CountByStatus(ctx context.Context, status domain.AppointmentStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.state.appts {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}
