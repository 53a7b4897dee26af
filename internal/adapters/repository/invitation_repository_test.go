package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/database"
)

func pendingInvitation() *entities.Invitation {
	return &entities.Invitation{
		ID:          uuid.New(),
		Token:       "signed-token",
		Email:       "carol@example.com",
		NoteID:      uuid.New(),
		InvitedByID: uuid.New(),
		Role:        entities.RoleEditor,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestInvitationRepository_Accept_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewInvitationRepository(&database.DB{DB: db})
	inv := pendingInvitation()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO note_collaborators`).
		WithArgs(sqlmock.AnyArg(), inv.NoteID, userID, inv.Role).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec(`DELETE FROM invitations WHERE id = \$1`).
		WithArgs(inv.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	collab, err := r.Accept(context.Background(), inv, userID)
	require.NoError(t, err)
	assert.Equal(t, inv.NoteID, collab.NoteID)
	assert.Equal(t, userID, collab.UserID)
	assert.Equal(t, entities.RoleEditor, collab.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_Accept_AlreadyCollaboratorRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewInvitationRepository(&database.DB{DB: db})
	inv := pendingInvitation()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO note_collaborators`).
		WithArgs(sqlmock.AnyArg(), inv.NoteID, userID, inv.Role).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := r.Accept(context.Background(), inv, userID)
	assert.ErrorIs(t, err, entities.ErrAlreadyCollaborator)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_Accept_ConsumedConcurrentlyRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewInvitationRepository(&database.DB{DB: db})
	inv := pendingInvitation()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO note_collaborators`).
		WithArgs(sqlmock.AnyArg(), inv.NoteID, userID, inv.Role).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec(`DELETE FROM invitations WHERE id = \$1`).
		WithArgs(inv.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// Someone consumed the invitation between fetch and accept. The new
	// collaborator row must not survive.
	_, err := r.Accept(context.Background(), inv, userID)
	assert.ErrorIs(t, err, entities.ErrInvitationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewInvitationRepository(&database.DB{DB: db})
	inv := pendingInvitation()

	mock.ExpectQuery(`INSERT INTO invitations`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := r.Create(context.Background(), inv)
	assert.ErrorIs(t, err, entities.ErrInvitationExists)
}

func TestInvitationRepository_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewInvitationRepository(&database.DB{DB: db})
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM invitations WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Delete(context.Background(), id)
	assert.ErrorIs(t, err, entities.ErrInvitationNotFound)
}
