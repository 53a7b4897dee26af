package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notehive/core/internal/domain/entities"
)

func TestNoteRepository_GetForUser_ChecksAccessInQuery(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepository(db)
	noteID := uuid.New()
	userID := uuid.New()

	// The author-or-collaborator predicate sits in the WHERE clause, so an
	// inaccessible note scans as missing.
	mock.ExpectQuery(`WHERE n\.id = \$1 AND \(n\.author_id = \$2 OR EXISTS`).
		WithArgs(noteID, userID).
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetForUser(context.Background(), noteID, userID)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_GetForUser(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepository(db)
	noteID := uuid.New()
	authorID := uuid.New()
	now := time.Now()

	noteCols := []string{
		"id", "title", "content", "author_id", "is_archived", "created_at", "updated_at",
		"task_count", "author_uid", "author_name", "author_email",
	}

	mock.ExpectQuery(`SELECT n\.id, n\.title, n\.content`).
		WithArgs(noteID, authorID).
		WillReturnRows(sqlmock.NewRows(noteCols).
			AddRow(noteID.String(), "plans", "body", authorID.String(), false, now, now,
				3, authorID.String(), "Ada", "ada@example.com"))

	collabCols := []string{"id", "note_id", "user_id", "role", "created_at", "collab_uid", "collab_name", "collab_email"}
	collabID := uuid.New()
	userID := uuid.New()
	mock.ExpectQuery(`FROM note_collaborators nc`).
		WithArgs(noteID).
		WillReturnRows(sqlmock.NewRows(collabCols).
			AddRow(collabID.String(), noteID.String(), userID.String(), "editor", now,
				userID.String(), "Bob", "bob@example.com"))

	note, err := r.GetForUser(context.Background(), noteID, authorID)
	require.NoError(t, err)

	assert.Equal(t, "plans", note.Title)
	assert.Equal(t, 3, note.TaskCount)
	require.NotNil(t, note.Author)
	assert.Equal(t, "Ada", note.Author.Name)
	require.Len(t, note.Collaborators, 1)
	assert.Equal(t, entities.RoleEditor, note.Collaborators[0].Role)
	require.NotNil(t, note.Collaborators[0].User)
	assert.Equal(t, "Bob", note.Collaborators[0].User.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_AddCollaborator_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepository(db)

	collab := &entities.NoteCollaborator{
		ID:     uuid.New(),
		NoteID: uuid.New(),
		UserID: uuid.New(),
		Role:   entities.RoleViewer,
	}

	mock.ExpectQuery(`INSERT INTO note_collaborators`).
		WithArgs(collab.ID, collab.NoteID, collab.UserID, collab.Role).
		WillReturnError(&pq.Error{Code: "23505"})

	err := r.AddCollaborator(context.Background(), collab)
	assert.ErrorIs(t, err, entities.ErrAlreadyCollaborator)
}

func TestNoteRepository_RemoveCollaborator_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepository(db)
	noteID := uuid.New()
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM note_collaborators`).
		WithArgs(noteID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.RemoveCollaborator(context.Background(), noteID, userID)
	assert.ErrorIs(t, err, entities.ErrCollaboratorNotFound)
}

func TestNoteRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewNoteRepository(db)
	noteID := uuid.New()

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
		WithArgs(noteID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), noteID))

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
		WithArgs(noteID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Delete(context.Background(), noteID), entities.ErrNoteNotFound)
}
