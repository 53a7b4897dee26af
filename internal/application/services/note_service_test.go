package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

func newNoteFixture(t *testing.T) (*NoteService, *fakeNoteRepo, uuid.UUID, *entities.Note) {
	t.Helper()

	notes := newFakeNoteRepo()
	svc := NewNoteService(notes, logger.NewNop())

	owner := uuid.New()
	note := &entities.Note{ID: uuid.New(), Title: "meeting notes", AuthorID: owner}
	require.NoError(t, notes.Create(context.Background(), note))

	return svc, notes, owner, note
}

func addCollaborator(t *testing.T, notes *fakeNoteRepo, note *entities.Note, role entities.CollaboratorRole) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, notes.AddCollaborator(context.Background(), &entities.NoteCollaborator{
		ID: uuid.New(), NoteID: note.ID, UserID: userID, Role: role,
	}))
	return userID
}

func strPtr(s string) *string { return &s }

func TestNoteService_UpdateByRole(t *testing.T) {
	svc, notes, _, note := newNoteFixture(t)
	ctx := context.Background()

	viewer := addCollaborator(t, notes, note, entities.RoleViewer)
	editor := addCollaborator(t, notes, note, entities.RoleEditor)

	// Viewers cannot edit, and the refusal reads as a missing note.
	_, err := svc.Update(ctx, note.ID, viewer, &ports.UpdateNoteRequest{Title: strPtr("renamed")})
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)

	updated, err := svc.Update(ctx, note.ID, editor, &ports.UpdateNoteRequest{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestNoteService_PartialUpdate(t *testing.T) {
	svc, _, owner, note := newNoteFixture(t)
	ctx := context.Background()

	archived := true
	updated, err := svc.Update(ctx, note.ID, owner, &ports.UpdateNoteRequest{IsArchived: &archived})
	require.NoError(t, err)

	// Untouched fields keep their values.
	assert.Equal(t, "meeting notes", updated.Title)
	assert.True(t, updated.IsArchived)
}

func TestNoteService_DeleteIsOwnerOnly(t *testing.T) {
	svc, notes, owner, note := newNoteFixture(t)
	ctx := context.Background()

	admin := addCollaborator(t, notes, note, entities.RoleAdmin)

	// Even admins cannot delete the note.
	err := svc.Delete(ctx, note.ID, admin)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)

	require.NoError(t, svc.Delete(ctx, note.ID, owner))

	_, err = svc.Get(ctx, note.ID, owner)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
}

func TestNoteService_GetHidesInaccessibleNotes(t *testing.T) {
	svc, _, _, note := newNoteFixture(t)

	_, err := svc.Get(context.Background(), note.ID, uuid.New())
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
}

func TestNoteService_RemoveCollaborator(t *testing.T) {
	svc, notes, owner, note := newNoteFixture(t)
	ctx := context.Background()

	viewer := addCollaborator(t, notes, note, entities.RoleViewer)

	// The author cannot be removed.
	err := svc.RemoveCollaborator(ctx, note.ID, owner, owner)
	assert.ErrorIs(t, err, entities.ErrCannotRemoveAuthor)

	require.NoError(t, svc.RemoveCollaborator(ctx, note.ID, owner, viewer))
	assert.False(t, note.CanView(viewer))
}

func TestNoteService_CollaboratorCanLeave(t *testing.T) {
	svc, notes, _, note := newNoteFixture(t)
	ctx := context.Background()

	viewer := addCollaborator(t, notes, note, entities.RoleViewer)

	require.NoError(t, svc.RemoveCollaborator(ctx, note.ID, viewer, viewer))
	assert.False(t, note.CanView(viewer))
}

func TestNoteService_RemoveRequiresManagement(t *testing.T) {
	svc, notes, _, note := newNoteFixture(t)
	ctx := context.Background()

	editor := addCollaborator(t, notes, note, entities.RoleEditor)
	viewer := addCollaborator(t, notes, note, entities.RoleViewer)

	err := svc.RemoveCollaborator(ctx, note.ID, editor, viewer)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
}

func TestNoteService_UpdateCollaboratorRole(t *testing.T) {
	svc, notes, owner, note := newNoteFixture(t)
	ctx := context.Background()

	viewer := addCollaborator(t, notes, note, entities.RoleViewer)

	collab, err := svc.UpdateCollaboratorRole(ctx, note.ID, owner, viewer, entities.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, collab.Role)

	// Role changes targeting the author find no collaborator row.
	_, err = svc.UpdateCollaboratorRole(ctx, note.ID, owner, owner, entities.RoleViewer)
	assert.ErrorIs(t, err, entities.ErrCollaboratorNotFound)
}
