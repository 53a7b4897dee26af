package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/config"
	"github.com/notehive/core/internal/ports"
)

// In-memory repository fakes. They mirror the repository contracts closely
// enough for service-level tests, including the not-found folding on the
// access-checked fetches.

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:      "notehive-test",
			ClientURL: "http://localhost:3000",
		},
		JWT: config.JWTConfig{
			Secret:              "test-secret-key",
			ExpiresIn:           time.Hour,
			RefreshExpiresIn:    24 * time.Hour,
			InvitationExpiresIn: 7 * 24 * time.Hour,
			Issuer:              "notehive-test",
		},
	}
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return entities.ErrUserAlreadyExists
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return u, nil
}

// GetByEmail matches exactly, like the email column lookup it stands in for.
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

type fakeNoteRepo struct {
	notes map[uuid.UUID]*entities.Note
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[uuid.UUID]*entities.Note)}
}

func (f *fakeNoteRepo) Create(ctx context.Context, note *entities.Note) error {
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	f.notes[note.ID] = note
	return nil
}

func (f *fakeNoteRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Note, error) {
	n, ok := f.notes[id]
	if !ok || !n.CanView(userID) {
		return nil, entities.ErrNoteNotFound
	}
	return n, nil
}

func (f *fakeNoteRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Note, error) {
	var out []*entities.Note
	for _, n := range f.notes {
		if n.CanView(userID) && !n.IsArchived {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	notes, _ := f.ListForUser(ctx, userID, 0, 0)
	return int64(len(notes)), nil
}

func (f *fakeNoteRepo) Update(ctx context.Context, note *entities.Note) error {
	if _, ok := f.notes[note.ID]; !ok {
		return entities.ErrNoteNotFound
	}
	note.UpdatedAt = time.Now()
	f.notes[note.ID] = note
	return nil
}

func (f *fakeNoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.notes[id]; !ok {
		return entities.ErrNoteNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteRepo) GetCollaborators(ctx context.Context, noteID uuid.UUID) ([]entities.NoteCollaborator, error) {
	n, ok := f.notes[noteID]
	if !ok {
		return nil, entities.ErrNoteNotFound
	}
	return n.Collaborators, nil
}

func (f *fakeNoteRepo) AddCollaborator(ctx context.Context, collab *entities.NoteCollaborator) error {
	n, ok := f.notes[collab.NoteID]
	if !ok {
		return entities.ErrNoteNotFound
	}
	for _, c := range n.Collaborators {
		if c.UserID == collab.UserID {
			return entities.ErrAlreadyCollaborator
		}
	}
	collab.CreatedAt = time.Now()
	n.Collaborators = append(n.Collaborators, *collab)
	return nil
}

func (f *fakeNoteRepo) UpdateCollaboratorRole(ctx context.Context, noteID, userID uuid.UUID, role entities.CollaboratorRole) error {
	n, ok := f.notes[noteID]
	if !ok {
		return entities.ErrNoteNotFound
	}
	for i := range n.Collaborators {
		if n.Collaborators[i].UserID == userID {
			n.Collaborators[i].Role = role
			return nil
		}
	}
	return entities.ErrCollaboratorNotFound
}

func (f *fakeNoteRepo) RemoveCollaborator(ctx context.Context, noteID, userID uuid.UUID) error {
	n, ok := f.notes[noteID]
	if !ok {
		return entities.ErrNoteNotFound
	}
	for i := range n.Collaborators {
		if n.Collaborators[i].UserID == userID {
			n.Collaborators = append(n.Collaborators[:i], n.Collaborators[i+1:]...)
			return nil
		}
	}
	return entities.ErrCollaboratorNotFound
}

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*entities.Task
	notes *fakeNoteRepo
}

func newFakeTaskRepo(notes *fakeNoteRepo) *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*entities.Task), notes: notes}
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *entities.Task) error {
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	n, ok := f.notes.notes[t.NoteID]
	if !ok || !n.CanView(userID) {
		return nil, entities.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, task *entities.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) ListByNote(ctx context.Context, noteID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range f.tasks {
		if t.NoteID == noteID && matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) CountByNote(ctx context.Context, noteID uuid.UUID, filter ports.TaskFilter) (int64, error) {
	tasks, _ := f.ListByNote(ctx, noteID, filter)
	return int64(len(tasks)), nil
}

func (f *fakeTaskRepo) ListForUser(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range f.tasks {
		n, ok := f.notes.notes[t.NoteID]
		if ok && n.CanView(userID) && matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) CountForUser(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) (int64, error) {
	tasks, _ := f.ListForUser(ctx, userID, filter)
	return int64(len(tasks)), nil
}

func matchesFilter(t *entities.Task, filter ports.TaskFilter) bool {
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
		return false
	}
	return true
}

type fakeInvitationRepo struct {
	byToken map[string]*entities.Invitation
	notes   *fakeNoteRepo
}

func newFakeInvitationRepo(notes *fakeNoteRepo) *fakeInvitationRepo {
	return &fakeInvitationRepo{byToken: make(map[string]*entities.Invitation), notes: notes}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, invitation *entities.Invitation) error {
	invitation.CreatedAt = time.Now()
	f.byToken[invitation.Token] = invitation
	return nil
}

func (f *fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*entities.Invitation, error) {
	inv, ok := f.byToken[token]
	if !ok {
		return nil, entities.ErrInvitationNotFound
	}
	if n, ok := f.notes.notes[inv.NoteID]; ok {
		inv.Note = n
	}
	return inv, nil
}

func (f *fakeInvitationRepo) GetPending(ctx context.Context, email string, noteID uuid.UUID) (*entities.Invitation, error) {
	for _, inv := range f.byToken {
		if strings.EqualFold(inv.Email, email) && inv.NoteID == noteID && !inv.IsExpired() {
			return inv, nil
		}
	}
	return nil, entities.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for token, inv := range f.byToken {
		if inv.ID == id {
			delete(f.byToken, token)
			return nil
		}
	}
	return entities.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) Accept(ctx context.Context, invitation *entities.Invitation, userID uuid.UUID) (*entities.NoteCollaborator, error) {
	collab := &entities.NoteCollaborator{
		ID:     uuid.New(),
		NoteID: invitation.NoteID,
		UserID: userID,
		Role:   invitation.Role,
	}
	if err := f.notes.AddCollaborator(ctx, collab); err != nil {
		return nil, err
	}
	if err := f.Delete(ctx, invitation.ID); err != nil {
		return nil, err
	}
	return collab, nil
}

type fakeAuthRepo struct {
	tokens map[string]*ports.RefreshToken
	nextID int
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{tokens: make(map[string]*ports.RefreshToken)}
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.nextID++
	f.tokens[tokenHash] = &ports.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeAuthRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshToken, error) {
	t, ok := f.tokens[tokenHash]
	if !ok {
		return nil, entities.ErrInvalidToken
	}
	return t, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	if t, ok := f.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *fakeAuthRepo) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeAuthRepo) CleanupExpiredTokens(ctx context.Context) error {
	for hash, t := range f.tokens {
		if t.IsExpired() {
			delete(f.tokens, hash)
		}
	}
	return nil
}
