// Package memory is an in-process implementation of the storage interfaces.
// It backs STORAGE_DRIVER=memory and the use case tests.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/NikolajSankovDev/zyron/internal/audit"
	"github.com/NikolajSankovDev/zyron/internal/domain/account"
	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/domain/calendar"
	"github.com/NikolajSankovDev/zyron/internal/keylock"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type Store struct {
	mu sync.RWMutex

	services     map[uint]models.Service
	barbers      map[uint]models.Barber
	workingHours map[uint][]models.WorkingHours
	timeOff      []models.TimeOff
	appointments map[uint]models.Appointment
	users        map[uint]models.User
	auditLogs    []models.AuditLog

	seq     uint
	failure error

	locks *keylock.Map[uint]
}

func New() *Store {
	return &Store{
		services:     map[uint]models.Service{},
		barbers:      map[uint]models.Barber{},
		workingHours: map[uint][]models.WorkingHours{},
		appointments: map[uint]models.Appointment{},
		users:        map[uint]models.User{},
		locks:        keylock.New[uint](),
	}
}

// --------------------------------------------------
// Seeding
// --------------------------------------------------

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

func (s *Store) PutService(svc models.Service) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc.ID == 0 {
		svc.ID = s.nextID()
	}
	s.services[svc.ID] = svc
	return svc
}

func (s *Store) PutBarber(b models.Barber) models.Barber {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == 0 {
		b.ID = s.nextID()
	}
	s.barbers[b.ID] = b
	return b
}

// PutWorkingHours replaces the row for (BarberID, Weekday).
func (s *Store) PutWorkingHours(wh models.WorkingHours) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := slices.DeleteFunc(s.workingHours[wh.BarberID], func(r models.WorkingHours) bool {
		return r.Weekday == wh.Weekday
	})
	wh.ID = s.nextID()
	s.workingHours[wh.BarberID] = append(rows, wh)
}

func (s *Store) PutAppointment(ap models.Appointment) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertAppointment(&ap)
	return cloneAppointment(ap)
}

// SetFailure makes every subsequent call return err wrapped as storage_unavailable.
// nil restores normal operation.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrTimeout
		}
		return err
	}
	if s.failure != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, s.failure)
	}
	return nil
}

func (s *Store) insertAppointment(ap *models.Appointment) {
	ap.ID = s.nextID()
	now := time.Now()
	ap.CreatedAt, ap.UpdatedAt = now, now

	for i := range ap.Services {
		ap.Services[i].ID = s.nextID()
		ap.Services[i].AppointmentID = ap.ID
	}
	s.appointments[ap.ID] = cloneAppointment(*ap)
}

func cloneAppointment(ap models.Appointment) models.Appointment {
	ap.Services = slices.Clone(ap.Services)
	return ap
}

func byStart(a, b models.Appointment) int {
	return a.StartTime.Compare(b.StartTime)
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (s *Store) GetActiveServicesByIDs(ctx context.Context, ids []uint) ([]models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []models.Service
	for _, id := range ids {
		svc, ok := s.services[id]
		if !ok || !svc.Active || slices.ContainsFunc(out, func(o models.Service) bool { return o.ID == id }) {
			continue
		}
		out = append(out, svc)
	}
	return out, nil
}

func (s *Store) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []models.Service
	for _, svc := range s.services {
		if svc.Active {
			out = append(out, svc)
		}
	}
	slices.SortFunc(out, func(a, b models.Service) int {
		return cmp.Or(cmp.Compare(a.DisplayOrder, b.DisplayOrder), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// --------------------------------------------------
// Barber
// --------------------------------------------------

func (s *Store) GetBarber(ctx context.Context, id uint) (*models.Barber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	b, ok := s.barbers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListActiveBarbers(ctx context.Context) ([]models.Barber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []models.Barber
	for _, b := range s.barbers {
		if b.Active {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.Barber) int {
		return cmp.Or(strings.Compare(a.DisplayName, b.DisplayName), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) UpdateBarberAvatar(ctx context.Context, barberID uint, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	b, ok := s.barbers[barberID]
	if !ok {
		return domain.ErrNotFound
	}
	b.AvatarURL = url
	s.barbers[barberID] = b
	return nil
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (s *Store) GetWorkingHours(ctx context.Context, barberID uint, weekday int) (*models.WorkingHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	for _, wh := range s.workingHours[barberID] {
		if wh.Weekday == weekday {
			return &wh, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListWorkingHours(ctx context.Context, barberID uint) ([]models.WorkingHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := slices.Clone(s.workingHours[barberID])
	slices.SortFunc(out, func(a, b models.WorkingHours) int { return cmp.Compare(a.Weekday, b.Weekday) })
	return out, nil
}

func (s *Store) ReplaceWorkingHours(ctx context.Context, barberID uint, hours []models.WorkingHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	rows := make([]models.WorkingHours, 0, len(hours))
	for _, wh := range hours {
		wh.ID = s.nextID()
		wh.BarberID = barberID
		rows = append(rows, wh)
	}
	s.workingHours[barberID] = rows
	return nil
}

func (s *Store) ListTimeOff(ctx context.Context, barberID uint, from, to time.Time) ([]models.TimeOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []models.TimeOff
	for _, off := range s.timeOff {
		if off.BarberID == barberID && calendar.Overlaps(off.StartTime, off.EndTime, from, to) {
			out = append(out, off)
		}
	}
	return out, nil
}

func (s *Store) CreateTimeOff(ctx context.Context, off *models.TimeOff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	if _, ok := s.barbers[off.BarberID]; !ok {
		return domain.ErrNotFound
	}
	off.ID = s.nextID()
	off.CreatedAt = time.Now()
	s.timeOff = append(s.timeOff, *off)
	return nil
}

// --------------------------------------------------
// Appointment (read)
// --------------------------------------------------

func (s *Store) ListActiveAppointments(ctx context.Context, barberID uint, from, to time.Time) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	return s.activeOverlapping(barberID, from, to), nil
}

func (s *Store) activeOverlapping(barberID uint, from, to time.Time) []models.Appointment {
	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.BarberID == barberID && calendar.SlotOverlapsAppointment(from, to, ap) {
			out = append(out, cloneAppointment(ap))
		}
	}
	slices.SortFunc(out, byStart)
	return out
}

func (s *Store) ListAppointmentsForPeriod(ctx context.Context, barberID uint, from, to time.Time) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.BarberID == barberID && !ap.StartTime.Before(from) && ap.StartTime.Before(to) {
			out = append(out, s.hydrate(ap))
		}
	}
	slices.SortFunc(out, byStart)
	return out, nil
}

func (s *Store) ListBookedStartingBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.Status == models.StatusBooked && !ap.StartTime.Before(from) && ap.StartTime.Before(to) {
			out = append(out, s.hydrate(ap))
		}
	}
	slices.SortFunc(out, byStart)
	return out, nil
}

func (s *Store) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := s.hydrate(ap)
	return &out, nil
}

// hydrate attaches customer, barber and line item services the way the
// gorm repository preloads them.
func (s *Store) hydrate(ap models.Appointment) models.Appointment {
	ap = cloneAppointment(ap)
	ap.Customer = s.users[ap.CustomerID]
	ap.Barber = s.barbers[ap.BarberID]
	for i := range ap.Services {
		ap.Services[i].Service = s.services[ap.Services[i].ServiceID]
	}
	return ap
}

// --------------------------------------------------
// Appointment (write)
// --------------------------------------------------

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id uint, status models.AppointmentStatus, now time.Time) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	domain.ApplyStatus(&ap, status, now)
	ap.UpdatedAt = now
	s.appointments[id] = ap

	out := s.hydrate(ap)
	return &out, nil
}

func (s *Store) CancelAppointmentsInRange(ctx context.Context, barberID uint, start, end, now time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var before []models.Appointment
	for id, ap := range s.appointments {
		if ap.BarberID != barberID || ap.Status == models.StatusCanceled {
			continue
		}
		if ap.StartTime.Before(start) || ap.StartTime.After(end) {
			continue
		}

		before = append(before, s.hydrate(ap))

		domain.ApplyStatus(&ap, models.StatusCanceled, now)
		ap.UpdatedAt = now
		s.appointments[id] = ap
	}

	slices.SortFunc(before, byStart)
	return before, nil
}

// WithBarberLock holds the barber's key lock for the whole of fn. Writes are
// buffered in the tx and applied only when fn returns nil.
func (s *Store) WithBarberLock(ctx context.Context, barberID uint, fn func(tx domain.BookingTx) error) error {
	unlock, err := s.locks.Lock(ctx, barberID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrTimeout
		}
		return err
	}
	defer unlock()

	tx := &bookingTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	for i := range tx.pending {
		s.insertAppointment(tx.pending[i])
	}
	for _, ch := range tx.statuses {
		ap := s.appointments[ch.id]
		domain.ApplyStatus(&ap, ch.status, ch.now)
		ap.UpdatedAt = ch.now
		s.appointments[ch.id] = ap
	}
	return nil
}

type statusChange struct {
	id     uint
	status models.AppointmentStatus
	now    time.Time
}

type bookingTx struct {
	store    *Store
	pending  []*models.Appointment
	statuses []statusChange
}

// HasConflict sees the store as it will be after commit: buffered status
// changes apply over stored rows.
func (tx *bookingTx) HasConflict(ctx context.Context, barberID uint, start, end time.Time, exceptID uint) (bool, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	if err := tx.store.check(ctx); err != nil {
		return false, err
	}

	for _, ap := range tx.store.appointments {
		if ap.ID == exceptID || ap.BarberID != barberID {
			continue
		}
		for _, ch := range tx.statuses {
			if ch.id == ap.ID {
				ap.Status = ch.status
			}
		}
		if calendar.SlotOverlapsAppointment(start, end, ap) {
			return true, nil
		}
	}
	for _, ap := range tx.pending {
		if ap.BarberID == barberID && calendar.SlotOverlapsAppointment(start, end, *ap) {
			return true, nil
		}
	}
	return false, nil
}

func (tx *bookingTx) SetStatus(ctx context.Context, id uint, status models.AppointmentStatus, now time.Time) error {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	if err := tx.store.check(ctx); err != nil {
		return err
	}

	if _, ok := tx.store.appointments[id]; !ok {
		return domain.ErrNotFound
	}
	tx.statuses = append(tx.statuses, statusChange{id: id, status: status, now: now})
	return nil
}

func (tx *bookingTx) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrTimeout
	}
	tx.pending = append(tx.pending, ap)
	return nil
}

// --------------------------------------------------
// Accounts
// --------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return account.ErrEmailTaken
		}
	}

	u.ID = s.nextID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, account.ErrUserNotFound
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return &u, nil
}

// --------------------------------------------------
// Audit
// --------------------------------------------------

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	entry.ID = s.nextID()
	entry.CreatedAt = time.Now()
	s.auditLogs = append(s.auditLogs, *entry)
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, 0, err
	}

	var matched []models.AuditLog
	for _, l := range slices.Backward(s.auditLogs) {
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.Entity != "" && l.Entity != f.Entity {
			continue
		}
		if !f.From.IsZero() && l.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && l.CreatedAt.After(f.To) {
			continue
		}
		matched = append(matched, l)
	}

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []models.AuditLog{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

var (
	_ domain.Repository  = (*Store)(nil)
	_ account.Repository = (*Store)(nil)
	_ audit.Store        = (*Store)(nil)
)
