package ports

import (
	"time"

	"github.com/google/uuid"
	"github.com/notehive/core/internal/domain/entities"
)

// Claims carries the identity extracted from a validated access token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// Auth DTOs

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100,notepassword"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AuthResponse struct {
	User         *entities.User `json:"user"`
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken,omitempty"`
	ExpiresIn    int64          `json:"expiresIn"`
}

// Note DTOs

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content    *string `json:"content"`
	IsArchived *bool   `json:"isArchived"`
}

type InviteRequest struct {
	Email string                    `json:"email" validate:"required,email"`
	Role  entities.CollaboratorRole `json:"role" validate:"omitempty,oneof=viewer editor admin"`
}

type UpdateRoleRequest struct {
	Role entities.CollaboratorRole `json:"role" validate:"required,oneof=viewer editor admin"`
}

// InviteResult distinguishes a direct addition of an existing user from a
// pending token invitation for an unregistered email.
type InviteResult struct {
	Type          string                     `json:"type"` // direct_addition or invitation_created
	Collaborator  *entities.NoteCollaborator `json:"collaborator,omitempty"`
	Invitation    *entities.Invitation       `json:"invitation,omitempty"`
	InvitationURL string                     `json:"invitationUrl,omitempty"`
}

const (
	InviteResultDirectAddition    = "direct_addition"
	InviteResultInvitationCreated = "invitation_created"
)

// Task DTOs

type CreateTaskRequest struct {
	Title       string                `json:"title" validate:"required,min=1,max=255"`
	Description string                `json:"description"`
	Priority    entities.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time            `json:"dueDate"`
	AssigneeID  *uuid.UUID            `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	Title       *string                `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string                `json:"description"`
	Status      *entities.TaskStatus   `json:"status" validate:"omitempty,oneof=pending in_progress completed on_hold"`
	Priority    *entities.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time             `json:"dueDate"`
	ClearDue    bool                   `json:"clearDueDate"`
	AssigneeID  *uuid.UUID             `json:"assigneeId"`
	Unassign    bool                   `json:"unassign"`
}
