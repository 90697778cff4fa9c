package user

// CreateUserRequest represents the UserCreate payload.
type CreateUserRequest struct {
	FirstName string  `validate:"required,max=100,safetext"`
	LastName  string  `validate:"required,max=100,safetext"`
	Email     string  `validate:"required,max=255,email"`
	Avatar    *string `validate:"omitnil,max=2048,url"`
}

// UpdateUserRequest represents the UserUpdate payload. Nil fields are not changed.
type UpdateUserRequest struct {
	ID        int64
	FirstName *string `validate:"omitnil,min=1,max=100,safetext"`
	LastName  *string `validate:"omitnil,min=1,max=100,safetext"`
	Email     *string `validate:"omitnil,max=255,email"`

	// AvatarSet is true when the payload carried an avatar key, even if its value was null.
	AvatarSet bool
	Avatar    *string `validate:"omitnil,max=2048,url"`
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// ListUsersRequest represents the request payload for listing users.
// Zero or out-of-range values are replaced by defaults.
type ListUsersRequest struct {
	Page int64
	Size int64
}

// ListUsersResponse represents one page of users.
type ListUsersResponse struct {
	Items []User
	Total int64
	Page  int64
	Size  int64
	Pages int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Avatar    *string
}
