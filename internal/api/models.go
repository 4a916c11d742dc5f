package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskwire-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UserResponse defines the representation of a user returned by the API.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// NewUserResponse builds a UserResponse from a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt.Format(timeFormat),
		UpdatedAt:   user.UpdatedAt.Format(timeFormat),
	}
}

// UpdateUserRequest defines the payload for profile updates. All fields are
// optional; omitted fields are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// CreateTaskRequest defines the payload for task creation.
type CreateTaskRequest struct {
	Title       string  `json:"title"                 validate:"required,min=1,max=200"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"      validate:"omitempty,oneof=TODO IN_PROGRESS DONE OVERDUE"`
	DueDate     *string `json:"due_date,omitempty"`

	// UserID lets staff create tasks on behalf of another user. Ignored
	// for non-staff callers' own identity checks in the service layer.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// UpdateTaskRequest defines the payload for partial task updates.
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string      `json:"description,omitempty"`
	Status      *string      `json:"status,omitempty"      validate:"omitempty,oneof=TODO IN_PROGRESS DONE OVERDUE"`
	DueDate     NullableTime `json:"due_date"`
}

// NullableTime distinguishes a field that was absent from one explicitly
// set to null. An explicit null clears the stored value.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid due_date: %w", err)
	}
	n.Value = &t
	return nil
}

// TaskResponse defines the representation of a task returned by the API.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     *string   `json:"due_date"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	CompletedAt *string   `json:"completed_at"`
}

// TaskListResponse wraps a page of tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00" // RFC 3339

// NewTaskResponse builds a TaskResponse from a domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt.Format(timeFormat),
		UpdatedAt:   task.UpdatedAt.Format(timeFormat),
	}
	if task.DueDate != nil {
		due := task.DueDate.Format(timeFormat)
		resp.DueDate = &due
	}
	if task.CompletedAt != nil {
		completed := task.CompletedAt.Format(timeFormat)
		resp.CompletedAt = &completed
	}
	return resp
}

// NewTaskListResponse builds a TaskListResponse from domain tasks.
func NewTaskListResponse(tasks []*domain.Task) TaskListResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return TaskListResponse{Tasks: out, Count: len(out)}
}
