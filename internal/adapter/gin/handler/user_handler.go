package handler

import (
	"errors"
	"net/http"
	"strconv"

	"user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Avatar    *string `json:"avatar"`
}

// UpdateUserRequest represents the HTTP request body for a partial update.
// Omitted keys leave the stored value untouched.
type UpdateUserRequest struct {
	FirstName *string        `json:"first_name"`
	LastName  *string        `json:"last_name"`
	Email     *string        `json:"email"`
	Avatar    NullableString `json:"avatar"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Avatar    *string `json:"avatar"`
}

// PageResponse represents one page of users
type PageResponse struct {
	Items []UserResponse `json:"items"`
	Total int64          `json:"total"`
	Page  int64          `json:"page"`
	Size  int64          `json:"size"`
	Pages int64          `json:"pages"`
}

// MessageResponse represents a plain confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Avatar:    u.Avatar,
	}
}

// parseID reads the id path parameter. Non-numeric ids and ids below 1 are rejected.
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerrors.ErrInvalidUserID
	}
	return id, nil
}

// parseQueryInt returns the integer query value, or 0 when it is missing or malformed.
func parseQueryInt(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// CreateUser handles POST {base}/create
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create user request", zap.Error(err))
		h.handleCreateError(c, pkgerrors.NewValidationError("", err.Error()))
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Avatar:    req.Avatar,
	})
	if err != nil {
		log.Warn("Gin CreateUser failed", zap.Error(err))
		h.handleCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(resp))
}

// GetUser handles GET {base}/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid user ID", zap.String("id", c.Param("id")))
		h.handleError(c, err)
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		log.Warn("Gin GetUser failed", zap.Int64("id", id), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(resp))
}

// UpdateUser handles PATCH {base}/update/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid user ID", zap.String("id", c.Param("id")))
		h.handleError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update user request", zap.Error(err))
		h.handleError(c, pkgerrors.NewValidationError("", err.Error()))
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		AvatarSet: req.Avatar.Set,
		Avatar:    req.Avatar.Value,
	})
	if err != nil {
		log.Warn("Gin UpdateUser failed", zap.Int64("id", id), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(resp))
}

// DeleteUser handles DELETE {base}/delete/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid user ID", zap.String("id", c.Param("id")))
		h.handleError(c, err)
		return
	}

	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		log.Warn("Gin DeleteUser failed", zap.Int64("id", id), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}

// ListUsers handles GET {base}/
func (h *UserHandler) ListUsers(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	// malformed values become 0 and are replaced by defaults in the usecase
	req := user.ListUsersRequest{
		Page: parseQueryInt(c, "page"),
		Size: parseQueryInt(c, "size"),
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), req)
	if err != nil {
		log.Error("Gin ListUsers failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	items := make([]UserResponse, len(resp.Items))
	for i := range resp.Items {
		items[i] = toUserResponse(&resp.Items[i])
	}

	c.JSON(http.StatusOK, PageResponse{
		Items: items,
		Total: resp.Total,
		Page:  resp.Page,
		Size:  resp.Size,
		Pages: resp.Pages,
	})
}

// handleCreateError is handleError with internal failures masked.
func (h *UserHandler) handleCreateError(c *gin.Context, err error) {
	if pkgerrors.StatusCode(err) == http.StatusInternalServerError {
		h.log.Error("create user internal failure", zap.Error(err))
		err = pkgerrors.ErrInternal
	}
	h.handleError(c, err)
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	status := pkgerrors.StatusCode(err)
	c.JSON(status, ErrorResponse{
		Error:  errorCode(err),
		Detail: err.Error(),
	})
}

// errorCode returns the machine-readable code for err.
func errorCode(err error) string {
	var (
		invalidArg *pkgerrors.InvalidArgumentError
		validation *pkgerrors.ValidationError
		notFound   *pkgerrors.NotFoundError
		exists     *pkgerrors.AlreadyExistsError
	)
	switch {
	case errors.As(err, &invalidArg):
		return "invalid_argument"
	case errors.As(err, &validation):
		return "validation_error"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &exists):
		return "already_exists"
	default:
		return "internal_error"
	}
}
