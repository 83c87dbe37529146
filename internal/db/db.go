package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NikolajSankovDev/zyron/internal/config"
	"github.com/NikolajSankovDev/zyron/internal/models"
)

// appointmentsNoOverlap backs the advisory lock with a database level guard;
// a violation surfaces as 23P01 and is reported as slot_conflict.
const appointmentsNoOverlap = `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
	) THEN
		ALTER TABLE appointments
		ADD CONSTRAINT appointments_no_overlap
		EXCLUDE USING gist (
			barber_id WITH =,
			tstzrange(start_time, end_time, '[)') WITH &&
		) WHERE (status <> 'CANCELED');
	END IF;
END $$;
`

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		PrepareStmt: true,
	}
	if cfg.IsProduction() {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(cfg.Storage.DatabaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ServiceTranslation{},
		&models.Barber{},
		&models.WorkingHours{},
		&models.TimeOff{},
		&models.Appointment{},
		&models.AppointmentService{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		log.Warn().Err(err).Msg("btree_gist unavailable, overlap constraint skipped")
		return db, nil
	}

	if err := db.Exec(appointmentsNoOverlap).Error; err != nil {
		log.Warn().Err(err).Msg("appointments overlap constraint not installed")
	}

	return db, nil
}
