package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNoteNotFound         = errors.New("note not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrInvitationExists     = errors.New("a pending invitation already exists")
	ErrAlreadyCollaborator  = errors.New("user is already a collaborator")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrCannotRemoveAuthor   = errors.New("note author cannot be removed")
	ErrEmailMismatch        = errors.New("invitation email does not match account email")
	ErrInvalidAssignee      = errors.New("assignee must have access to the note")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
)

// CollaboratorRole is the access level granted to a non-owner user on a note.
type CollaboratorRole string

const (
	RoleViewer CollaboratorRole = "viewer"
	RoleEditor CollaboratorRole = "editor"
	RoleAdmin  CollaboratorRole = "admin"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOnHold     TaskStatus = "on_hold"
)

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Summary strips a user down to the fields safe to embed in other resources.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the allowlisted user reference embedded in responses.
type UserSummary struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
}

// Note is a shared document owning tasks and collaborators.
// AuthorID is immutable; the author never appears in Collaborators.
type Note struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	AuthorID   uuid.UUID `json:"authorId" db:"author_id"`
	IsArchived bool      `json:"isArchived" db:"is_archived"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	Author        *UserSummary       `json:"author,omitempty"`
	Collaborators []NoteCollaborator `json:"collaborators,omitempty"`
	TaskCount     int                `json:"taskCount" db:"task_count"`
}

// NoteCollaborator grants Role on NoteID to UserID. (note_id, user_id) is unique.
type NoteCollaborator struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	NoteID    uuid.UUID        `json:"noteId" db:"note_id"`
	UserID    uuid.UUID        `json:"userId" db:"user_id"`
	Role      CollaboratorRole `json:"role" db:"role"`
	CreatedAt time.Time        `json:"joinedAt" db:"created_at"`

	User *UserSummary `json:"user,omitempty"`
}

// Task is a to-do item scoped to exactly one note.
type Task struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	NoteID      uuid.UUID    `json:"noteId" db:"note_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	DueDate     *time.Time   `json:"dueDate" db:"due_date"`
	AuthorID    uuid.UUID    `json:"authorId" db:"author_id"`
	AssigneeID  *uuid.UUID   `json:"assigneeId" db:"assignee_id"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`

	Author   *UserSummary `json:"author,omitempty"`
	Assignee *UserSummary `json:"assignee,omitempty"`
}

// Invitation is a pending, token-addressed offer for an email address to become
// a collaborator. Rows are consumed on accept or decline; expiry is derived from
// ExpiresAt at read time, never persisted as a status.
type Invitation struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Token       string           `json:"token" db:"token"`
	Email       string           `json:"email" db:"email"`
	NoteID      uuid.UUID        `json:"noteId" db:"note_id"`
	InvitedByID uuid.UUID        `json:"invitedById" db:"invited_by_id"`
	Role        CollaboratorRole `json:"role" db:"role"`
	ExpiresAt   time.Time        `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`

	Note      *Note        `json:"note,omitempty"`
	InvitedBy *UserSummary `json:"invitedBy,omitempty"`
}

// IsExpired reports whether the invitation can no longer be read or accepted.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// Authorization policy. Each predicate takes the acting user and decides from
// ownership plus the loaded collaborator rows. The owner always wins, even if a
// collaborator row exists for them (it should not).

// RoleOf returns the collaborator role of userID on the note, if any.
func (n *Note) RoleOf(userID uuid.UUID) (CollaboratorRole, bool) {
	for _, c := range n.Collaborators {
		if c.UserID == userID {
			return c.Role, true
		}
	}
	return "", false
}

// IsOwner reports whether userID is the note author.
func (n *Note) IsOwner(userID uuid.UUID) bool {
	return n.AuthorID == userID
}

// CanView is true for the owner and any collaborator.
func (n *Note) CanView(userID uuid.UUID) bool {
	if n.IsOwner(userID) {
		return true
	}
	_, ok := n.RoleOf(userID)
	return ok
}

// CanEdit is true for the owner and editor/admin collaborators.
func (n *Note) CanEdit(userID uuid.UUID) bool {
	if n.IsOwner(userID) {
		return true
	}
	role, ok := n.RoleOf(userID)
	return ok && (role == RoleEditor || role == RoleAdmin)
}

// CanManageCollaborators covers inviting, removing and role changes.
func (n *Note) CanManageCollaborators(userID uuid.UUID) bool {
	if n.IsOwner(userID) {
		return true
	}
	role, ok := n.RoleOf(userID)
	return ok && role == RoleAdmin
}

// CanDelete is owner-only. Admins manage collaborators but cannot delete the note.
func (n *Note) CanDelete(userID uuid.UUID) bool {
	return n.IsOwner(userID)
}

// HasMember reports whether userID may be assigned tasks on the note.
func (n *Note) HasMember(userID uuid.UUID) bool {
	return n.CanView(userID)
}

// CanEdit is independent of note-level role: the task author or assignee may edit.
func (t *Task) CanEdit(userID uuid.UUID) bool {
	if t.AuthorID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// CanDelete is restricted to the task author.
func (t *Task) CanDelete(userID uuid.UUID) bool {
	return t.AuthorID == userID
}

func (r CollaboratorRole) IsValid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleAdmin:
		return true
	default:
		return false
	}
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOnHold:
		return true
	default:
		return false
	}
}

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}
