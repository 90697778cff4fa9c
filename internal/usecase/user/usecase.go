package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
	"user-crud-service/pkg/security"

	"github.com/go-playground/validator/v10"
)

// Repository defines the user store. Each call runs in its own transaction.
type Repository interface {
	// Get returns nil without error when the user does not exist.
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, page, size int64) ([]domain.User, int64, error)
	// Create fails with an AlreadyExistsError when the email is taken.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	// Update applies only the fields present in patch.
	Update(ctx context.Context, id int64, patch domain.Patch) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// Default page limits used when none are configured.
const (
	DefaultPageSize int64 = 50
	MaxPageSize     int64 = 100
)

// PageLimits bounds the size of a list page.
type PageLimits struct {
	DefaultSize int64
	MaxSize     int64
}

// Usecase implements the business logic for user management operations.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
	limits   PageLimits
}

var _ UserUsecase = (*Usecase)(nil)

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return NewWithLimits(r, log, PageLimits{DefaultSize: DefaultPageSize, MaxSize: MaxPageSize})
}

// NewWithLimits creates a Usecase with custom page size limits.
func NewWithLimits(r Repository, log *zap.Logger, limits PageLimits) *Usecase {
	if limits.DefaultSize < 1 {
		limits.DefaultSize = DefaultPageSize
	}
	if limits.MaxSize < limits.DefaultSize {
		limits.MaxSize = limits.DefaultSize
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := security.RegisterValidators(v); err != nil {
		// the tag name is a constant, so this only fails on programmer error
		panic(fmt.Sprintf("register validators: %v", err))
	}

	return &Usecase{repo: r, log: log, validate: v, limits: limits}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewValidationError("", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := jsonFieldName(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", field))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a valid URL", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case security.SafeTextTag:
			messages = append(messages, fmt.Sprintf("%s contains invalid characters", field))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}

	field := ""
	if len(validationErrors) == 1 {
		field = jsonFieldName(validationErrors[0].Field())
	}
	return pkgerrors.NewValidationError(field, strings.Join(messages, ", "))
}

// jsonFieldName maps a Go field name to its JSON name, e.g. FirstName -> first_name.
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func validateID(id int64) error {
	if id <= 0 {
		return pkgerrors.ErrInvalidUserID
	}
	return nil
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Avatar:    u.Avatar,
	}
}

// CreateUser validates the UserCreate payload and persists a new user.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	created, err := uc.repo.Create(ctx, &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Avatar:    in.Avatar,
	})
	if err != nil {
		log.Warn("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	return toDTO(created), nil
}

// UpdateUser validates the UserUpdate payload and applies it to an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", in.ID))

	if err := validateID(in.ID); err != nil {
		log.Warn("update user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	updated, err := uc.repo.Update(ctx, in.ID, domain.Patch{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		AvatarSet: in.AvatarSet,
		Avatar:    in.Avatar,
	})
	if err != nil {
		log.Warn("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return toDTO(updated), nil
}

// DeleteUser removes a user after validating the user ID.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	if err := validateID(in.ID); err != nil {
		log.Warn("delete user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		log.Warn("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := validateID(in.ID); err != nil {
		log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	u, err := uc.repo.Get(ctx, in.ID)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if u == nil {
		log.Debug("user not found", zap.Int64("id", in.ID))
		return nil, pkgerrors.ErrUserNotFound
	}

	return toDTO(u), nil
}

// ListUsers retrieves one page of users ordered by id.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Size <= 0 {
		in.Size = uc.limits.DefaultSize
	}
	if in.Size > uc.limits.MaxSize {
		in.Size = uc.limits.MaxSize
	}

	log := logger.WithContext(ctx, uc.log)
	log.Info("listing users", zap.Int64("page", in.Page), zap.Int64("size", in.Size))

	domainUsers, total, err := uc.repo.List(ctx, in.Page, in.Size)
	if err != nil {
		log.Error("failed to list users", zap.Int64("page", in.Page), zap.Int64("size", in.Size), zap.Error(err))
		return nil, err
	}

	page := domain.NewPage(domainUsers, total, in.Page, in.Size)

	users := make([]User, len(page.Items))
	for i := range page.Items {
		users[i] = *toDTO(&page.Items[i])
	}

	return &ListUsersResponse{
		Items: users,
		Total: page.Total,
		Page:  page.Page,
		Size:  page.Size,
		Pages: page.Pages,
	}, nil
}
