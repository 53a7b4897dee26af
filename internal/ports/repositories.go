package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notehive/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// NoteRepository defines the interface for note and collaborator data operations.
// The *ForUser methods evaluate the access predicate (author OR collaborator row)
// inside the fetch query, so an inaccessible note is indistinguishable from a
// missing one.
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Note, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Note, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, note *entities.Note) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetCollaborators(ctx context.Context, noteID uuid.UUID) ([]entities.NoteCollaborator, error)
	AddCollaborator(ctx context.Context, collab *entities.NoteCollaborator) error
	UpdateCollaboratorRole(ctx context.Context, noteID, userID uuid.UUID, role entities.CollaboratorRole) error
	RemoveCollaborator(ctx context.Context, noteID, userID uuid.UUID) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByNote(ctx context.Context, noteID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
	CountByNote(ctx context.Context, noteID uuid.UUID, filter TaskFilter) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
	CountForUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) (int64, error)
}

// InvitationRepository defines the interface for invitation data operations
type InvitationRepository interface {
	Create(ctx context.Context, invitation *entities.Invitation) error
	GetByToken(ctx context.Context, token string) (*entities.Invitation, error)
	GetPending(ctx context.Context, email string, noteID uuid.UUID) (*entities.Invitation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Accept atomically creates the collaborator row and deletes the invitation.
	Accept(ctx context.Context, invitation *entities.Invitation, userID uuid.UUID) (*entities.NoteCollaborator, error)
}

// AuthRepository defines the interface for refresh token operations
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// TaskFilter narrows task listings. Ordering is fixed (status bucket, priority,
// due date, creation) and not caller-configurable.
type TaskFilter struct {
	Status     *entities.TaskStatus
	AssigneeID *uuid.UUID
	Priority   *entities.TaskPriority
	Limit      int
	Offset     int
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int        `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"userId" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	RevokedAt *time.Time `json:"revokedAt" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}
