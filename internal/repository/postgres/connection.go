package postgres

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dmr/account-service/internal/auth"
	"github.com/dmr/account-service/internal/domain"
	"github.com/dmr/account-service/internal/repository"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates the schema directly from the models. Production schema
// is owned by the migration CLI; this is for tests and local development.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
	)
}

func NewRepositories(db *gorm.DB, hasher *auth.PasswordHasher) *repository.Repositories {
	return &repository.Repositories{
		User: NewUserRepository(db, hasher),
	}
}
