package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/dmr/account-service/internal/auth"
	"github.com/dmr/account-service/internal/domain"
	"github.com/dmr/account-service/internal/repository"
)

// publicColumns is the projection returned by every read that is not a login
// lookup. The password hash column stays out of it.
var publicColumns = []string{"id", "name", "email", "signup_date", "created_at", "updated_at"}

type userRepository struct {
	db     *gorm.DB
	hasher *auth.PasswordHasher
}

func NewUserRepository(db *gorm.DB, hasher *auth.PasswordHasher) *userRepository {
	return &userRepository{db: db, hasher: hasher}
}

func (r *userRepository) Create(ctx context.Context, name, email, rawPassword string) (*domain.User, error) {
	hash, err := r.hasher.Hash(rawPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		SignupDate:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// The unique constraint is the authoritative duplicate check;
		// concurrent signups for the same email land here.
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Select(publicColumns).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Select(publicColumns).
		First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmailWithSecret(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, params repository.UpdateUserParams) (*domain.User, error) {
	if params.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Email != nil {
		updates["email"] = normalizeEmail(*params.Email)
	}
	if params.Password != nil {
		hash, err := r.hasher.Hash(*params.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, domain.ErrEmailExists
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Select(publicColumns).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Emails are unique case-insensitively, so they are stored lowercased.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
