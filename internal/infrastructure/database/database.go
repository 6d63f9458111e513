package database

import (
	"ideanest-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from a Postgres DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers such as PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Project{},
		&domain.Investment{},
		&domain.InvestmentEvent{},
		&domain.SettlementTx{},
	}
}

// AutoMigrate creates or updates the service tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
