package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/database"
	"github.com/notehive/core/internal/ports"
)

// InvitationRepositoryImpl implements the InvitationRepository interface
type InvitationRepositoryImpl struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository. It takes the
// database wrapper rather than the bare handle because Accept is transactional.
func NewInvitationRepository(db *database.DB) ports.InvitationRepository {
	return &InvitationRepositoryImpl{db: db}
}

func (r *InvitationRepositoryImpl) Create(ctx context.Context, invitation *entities.Invitation) error {
	query := `
		INSERT INTO invitations (id, token, email, note_id, invited_by_id, role, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if invitation.ID == uuid.Nil {
		invitation.ID = uuid.New()
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		invitation.ID, invitation.Token, invitation.Email, invitation.NoteID,
		invitation.InvitedByID, invitation.Role, invitation.ExpiresAt,
	).Scan(&invitation.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrInvitationExists
		}
		return fmt.Errorf("create invitation: %w", err)
	}

	return nil
}

func (r *InvitationRepositoryImpl) GetByToken(ctx context.Context, token string) (*entities.Invitation, error) {
	query := `
		SELECT i.id, i.token, i.email, i.note_id, i.invited_by_id, i.role, i.expires_at, i.created_at,
			n.id AS n_id, n.title AS n_title, n.author_id AS n_author_id,
			u.id AS inviter_uid, u.name AS inviter_name, u.email AS inviter_email
		FROM invitations i
		JOIN notes n ON n.id = i.note_id
		JOIN users u ON u.id = i.invited_by_id
		WHERE i.token = $1`

	row := r.db.DB.QueryRowxContext(ctx, query, token)

	var inv entities.Invitation
	var note entities.Note
	var inviter entities.UserSummary
	err := row.Scan(
		&inv.ID, &inv.Token, &inv.Email, &inv.NoteID, &inv.InvitedByID,
		&inv.Role, &inv.ExpiresAt, &inv.CreatedAt,
		&note.ID, &note.Title, &note.AuthorID,
		&inviter.ID, &inviter.Name, &inviter.Email,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}

	inv.Note = &note
	inv.InvitedBy = &inviter

	return &inv, nil
}

func (r *InvitationRepositoryImpl) GetPending(ctx context.Context, email string, noteID uuid.UUID) (*entities.Invitation, error) {
	// Expired rows do not count as pending; a fresh invite may supersede them.
	query := `
		SELECT id, token, email, note_id, invited_by_id, role, expires_at, created_at
		FROM invitations
		WHERE email = $1 AND note_id = $2 AND expires_at > CURRENT_TIMESTAMP`

	var inv entities.Invitation
	err := r.db.DB.GetContext(ctx, &inv, query, email, noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("get pending invitation: %w", err)
	}

	return &inv, nil
}

func (r *InvitationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM invitations WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrInvitationNotFound
	}

	return nil
}

// Accept creates the collaborator row and deletes the invitation in a single
// transaction, so a crash between the two steps cannot leave an accepted
// invitation behind or a collaborator without a consumed invitation.
func (r *InvitationRepositoryImpl) Accept(ctx context.Context, invitation *entities.Invitation, userID uuid.UUID) (*entities.NoteCollaborator, error) {
	collab := &entities.NoteCollaborator{
		ID:     uuid.New(),
		NoteID: invitation.NoteID,
		UserID: userID,
		Role:   invitation.Role,
	}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		insertQuery := `
			INSERT INTO note_collaborators (id, note_id, user_id, role)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`

		err := tx.QueryRowContext(ctx, insertQuery,
			collab.ID, collab.NoteID, collab.UserID, collab.Role,
		).Scan(&collab.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return entities.ErrAlreadyCollaborator
			}
			return fmt.Errorf("accept invitation: add collaborator: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, invitation.ID)
		if err != nil {
			return fmt.Errorf("accept invitation: delete invitation: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Consumed concurrently; the rollback keeps the collaborator row out too.
			return entities.ErrInvitationNotFound
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return collab, nil
}
