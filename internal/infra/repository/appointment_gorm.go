package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *AppointmentGormRepository) GetActiveServicesByIDs(
	ctx context.Context,
	ids []uint,
) ([]models.Service, error) {

	var services []models.Service
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&services).Error; err != nil {
		return nil, classify(err)
	}
	return services, nil
}

func (r *AppointmentGormRepository) ListActiveServices(
	ctx context.Context,
) ([]models.Service, error) {

	var services []models.Service
	if err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("active = ?", true).
		Order("display_order ASC, id ASC").
		Find(&services).Error; err != nil {
		return nil, classify(err)
	}
	return services, nil
}

// --------------------------------------------------
// Barber
// --------------------------------------------------

func (r *AppointmentGormRepository) GetBarber(
	ctx context.Context,
	id uint,
) (*models.Barber, error) {

	var barber models.Barber
	if err := r.db.WithContext(ctx).First(&barber, id).Error; err != nil {
		return nil, classify(err)
	}
	return &barber, nil
}

func (r *AppointmentGormRepository) ListActiveBarbers(
	ctx context.Context,
) ([]models.Barber, error) {

	var barbers []models.Barber
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_name ASC, id ASC").
		Find(&barbers).Error; err != nil {
		return nil, classify(err)
	}
	return barbers, nil
}

func (r *AppointmentGormRepository) UpdateBarberAvatar(
	ctx context.Context,
	barberID uint,
	url string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Barber{}).
		Where("id = ?", barberID).
		Update("avatar_url", url)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (r *AppointmentGormRepository) GetWorkingHours(
	ctx context.Context,
	barberID uint,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("barber_id = ? AND weekday = ?", barberID, weekday).
		First(&wh).Error; err != nil {
		return nil, classify(err)
	}

	return &wh, nil
}

func (r *AppointmentGormRepository) ListWorkingHours(
	ctx context.Context,
	barberID uint,
) ([]models.WorkingHours, error) {

	var hours []models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {
		return nil, classify(err)
	}
	return hours, nil
}

func (r *AppointmentGormRepository) ReplaceWorkingHours(
	ctx context.Context,
	barberID uint,
	hours []models.WorkingHours,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("barber_id = ?", barberID).
			Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}

		if len(hours) == 0 {
			return nil
		}

		for i := range hours {
			hours[i].ID = 0
			hours[i].BarberID = barberID
		}

		return tx.Create(&hours).Error
	})
	return classify(err)
}

func (r *AppointmentGormRepository) ListTimeOff(
	ctx context.Context,
	barberID uint,
	from time.Time,
	to time.Time,
) ([]models.TimeOff, error) {

	var offs []models.TimeOff
	if err := r.db.WithContext(ctx).
		Where(
			"barber_id = ? AND start_time < ? AND end_time > ?",
			barberID, to, from,
		).
		Order("start_time ASC").
		Find(&offs).Error; err != nil {
		return nil, classify(err)
	}
	return offs, nil
}

func (r *AppointmentGormRepository) CreateTimeOff(
	ctx context.Context,
	off *models.TimeOff,
) error {
	return classify(r.db.WithContext(ctx).Create(off).Error)
}

// --------------------------------------------------
// Appointment (read)
// --------------------------------------------------

func (r *AppointmentGormRepository) ListActiveAppointments(
	ctx context.Context,
	barberID uint,
	from time.Time,
	to time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Select("id", "barber_id", "start_time", "end_time", "status").
		Where(
			"barber_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			barberID, models.StatusCanceled, to, from,
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, classify(err)
	}

	return apps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	barberID uint,
	from time.Time,
	to time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment

	err := r.withLineItems(r.db.WithContext(ctx)).
		Preload("Customer").
		Where(
			"barber_id = ? AND start_time >= ? AND start_time < ?",
			barberID, from, to,
		).
		Order("start_time ASC").
		Find(&apps).Error

	if err != nil {
		return nil, classify(err)
	}

	return apps, nil
}

func (r *AppointmentGormRepository) ListBookedStartingBetween(
	ctx context.Context,
	from time.Time,
	to time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Barber").
		Where(
			"status = ? AND start_time >= ? AND start_time < ?",
			models.StatusBooked, from, to,
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, classify(err)
	}
	return apps, nil
}

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {
	return r.getAppointment(r.db.WithContext(ctx), id)
}

func (r *AppointmentGormRepository) getAppointment(
	db *gorm.DB,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.withLineItems(db).
		Preload("Customer").
		Preload("Barber").
		First(&ap, id).Error; err != nil {
		return nil, classify(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) withLineItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Services.Service")
}

// --------------------------------------------------
// Appointment (write)
// --------------------------------------------------

func (r *AppointmentGormRepository) UpdateAppointmentStatus(
	ctx context.Context,
	id uint,
	status models.AppointmentStatus,
	now time.Time,
) (*models.Appointment, error) {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ap models.Appointment
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ap, id).Error; err != nil {
			return err
		}

		domain.ApplyStatus(&ap, status, now)

		return tx.Model(&ap).
			Select("status", "cancelled_at", "completed_at").
			Updates(&ap).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	return r.GetAppointment(ctx, id)
}

func (r *AppointmentGormRepository) CancelAppointmentsInRange(
	ctx context.Context,
	barberID uint,
	start time.Time,
	end time.Time,
	now time.Time,
) ([]models.Appointment, error) {

	var before []models.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.
			Model(&models.Appointment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"barber_id = ? AND status <> ? AND start_time >= ? AND start_time <= ?",
				barberID, models.StatusCanceled, start, end,
			).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		if err := tx.
			Preload("Customer").
			Where("id IN ?", ids).
			Order("start_time ASC").
			Find(&before).Error; err != nil {
			return err
		}

		return tx.Model(&models.Appointment{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":       models.StatusCanceled,
				"cancelled_at": now,
			}).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	return before, nil
}

// WithBarberLock opens a serializable transaction and takes a transaction
// scoped advisory lock keyed by the barber before running fn.
func (r *AppointmentGormRepository) WithBarberLock(
	ctx context.Context,
	barberID uint,
	fn func(tx domain.BookingTx) error,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(?)",
			int64(barberID),
		).Error; err != nil {
			return err
		}

		return fn(&gormBookingTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	return classify(err)
}

type gormBookingTx struct {
	db *gorm.DB
}

func (t *gormBookingTx) HasConflict(
	ctx context.Context,
	barberID uint,
	start time.Time,
	end time.Time,
	exceptID uint,
) (bool, error) {

	var ids []uint
	if err := t.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(
			"barber_id = ? AND id <> ? AND status <> ? AND start_time < ? AND end_time > ?",
			barberID, exceptID, models.StatusCanceled, end, start,
		).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return false, err
	}

	return len(ids) > 0, nil
}

func (t *gormBookingTx) SetStatus(
	ctx context.Context,
	id uint,
	status models.AppointmentStatus,
	now time.Time,
) error {

	db := t.db.WithContext(ctx)

	var ap models.Appointment
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ap, id).Error; err != nil {
		return err
	}

	domain.ApplyStatus(&ap, status, now)

	return db.Model(&ap).
		Select("status", "cancelled_at", "completed_at").
		Updates(&ap).Error
}

func (t *gormBookingTx) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	db := t.db.WithContext(ctx)

	lines := ap.Services
	if err := db.Omit(clause.Associations).Create(ap).Error; err != nil {
		return err
	}

	if len(lines) == 0 {
		return nil
	}

	for i := range lines {
		lines[i].AppointmentID = ap.ID
	}
	if err := db.Omit(clause.Associations).Create(&lines).Error; err != nil {
		return err
	}
	ap.Services = lines

	return nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
