package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
)

// uniqueViolationCode is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolationCode = "23505"

// UserRepoPG implements the user store on top of GORM.
// Every operation runs in its own transaction.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// The unique index on email is the final arbiter of email uniqueness.
type UserSchema struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	FirstName string  `gorm:"size:100;not null"`
	LastName  string  `gorm:"size:100;not null"`
	Email     string  `gorm:"size:255;not null;uniqueIndex:idx_users_email"`
	Avatar    *string `gorm:"size:2048"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates or updates the users table and its indexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}

func toSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Avatar:    u.Avatar,
	}
}

func (m UserSchema) toDomain() *user.User {
	return &user.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Avatar:    m.Avatar,
	}
}

// inTx runs fn inside a transaction bound to ctx and classifies whatever error escapes it.
func (r *UserRepoPG) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	return classify(err)
}

// classify maps storage errors onto the application error taxonomy.
func classify(err error) error {
	if pkgerrors.IsClassified(err) {
		return err
	}
	if isUniqueViolation(err) {
		return pkgerrors.NewIntegrityError("user", err)
	}
	return pkgerrors.NewStorageError(err)
}

// isUniqueViolation reports whether err comes from a unique constraint.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	// sqlite reports "UNIQUE constraint failed: users.email"
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// findByEmail returns the user holding email, ignoring excludeID when it is positive.
func findByEmail(tx *gorm.DB, email string, excludeID int64) (*UserSchema, error) {
	q := tx.Where("email = ?", email)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var model UserSchema
	if err := q.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model, nil
}

// Get retrieves a user by primary key. It returns nil without error when the user does not exist.
func (r *UserRepoPG) Get(ctx context.Context, id int64) (*user.User, error) {
	var found *user.User

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		var model UserSchema
		if err := tx.Take(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = model.toDomain()
		return nil
	})
	if err != nil {
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, err
	}

	if found == nil {
		r.log.Debug("user not found", zap.Int64("id", id))
	}
	return found, nil
}

// List returns one page of users ordered by id together with the total count.
func (r *UserRepoPG) List(ctx context.Context, page, size int64) ([]user.User, int64, error) {
	if page < 1 || size < 1 {
		return nil, 0, pkgerrors.NewValidationError("page", "page and size must be positive")
	}

	var (
		models []UserSchema
		total  int64
	)

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&UserSchema{}).Count(&total).Error; err != nil {
			return err
		}
		return tx.Order("id ASC").
			Offset(int(user.Offset(page, size))).
			Limit(int(size)).
			Find(&models).Error
	})
	if err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.Int64("page", page), zap.Int64("size", size))
		return nil, 0, err
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = *model.toDomain()
	}

	return users, total, nil
}

// Create inserts a new user. The email pre-check runs before any write; a unique
// violation raised by the insert itself is reported as an integrity error.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, pkgerrors.NewValidationError("", "user cannot be nil")
	}

	model := toSchema(u)
	model.ID = 0

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		existing, err := findByEmail(tx, model.Email, 0)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.NewAlreadyExistsError("user", "User with this email already exists")
		}

		return tx.Create(&model).Error
	})
	if err != nil {
		r.log.Warn("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, err
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return model.toDomain(), nil
}

// Update applies the fields present in patch to the user with the given id.
func (r *UserRepoPG) Update(ctx context.Context, id int64, patch user.Patch) (*user.User, error) {
	var updated *user.User

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		var model UserSchema
		if err := tx.Take(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.ErrUserNotFound
			}
			return err
		}

		if patch.Email != nil {
			other, err := findByEmail(tx, *patch.Email, id)
			if err != nil {
				return err
			}
			if other != nil {
				return pkgerrors.NewAlreadyExistsError("user", "Email already exists")
			}
		}

		current := model.toDomain()
		current.Apply(patch)
		model = toSchema(current)

		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		updated = model.toDomain()
		return nil
	})
	if err != nil {
		r.log.Warn("failed to update user in db", zap.Error(err), zap.Int64("id", id))
		return nil, err
	}

	r.log.Info("user updated in db", zap.Int64("id", id))
	return updated, nil
}

// Delete removes the user with the given id.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		var model UserSchema
		if err := tx.Take(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.ErrUserNotFound
			}
			return err
		}

		res := tx.Delete(&model)
		if res.Error != nil {
			return pkgerrors.NewStorageError(res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		r.log.Warn("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return err
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}
