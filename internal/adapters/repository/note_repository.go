package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/ports"
)

// noteAccessPredicate gates every *ForUser fetch: the acting user must be the
// author or hold a collaborator row. Inaccessible notes scan as missing, so
// handlers answer 404 either way. Both placeholders bind the same user id.
const noteAccessPredicate = `(n.author_id = %[1]s OR EXISTS (
		SELECT 1 FROM note_collaborators nc WHERE nc.note_id = n.id AND nc.user_id = %[1]s))`

// NoteRepositoryImpl implements the NoteRepository interface
type NoteRepositoryImpl struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) ports.NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entities.Note) error {
	query := `
		INSERT INTO notes (id, title, content, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.Title, note.Content, note.AuthorID,
	).Scan(&note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	return nil
}

func (r *NoteRepositoryImpl) GetForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Note, error) {
	query := fmt.Sprintf(`
		SELECT n.id, n.title, n.content, n.author_id, n.is_archived, n.created_at, n.updated_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.note_id = n.id) AS task_count,
			u.id AS author_uid, u.name AS author_name, u.email AS author_email
		FROM notes n
		JOIN users u ON u.id = n.author_id
		WHERE n.id = $1 AND `+noteAccessPredicate, "$2")

	row := r.db.QueryRowxContext(ctx, query, id, userID)

	var note entities.Note
	var author entities.UserSummary
	err := row.Scan(
		&note.ID, &note.Title, &note.Content, &note.AuthorID, &note.IsArchived,
		&note.CreatedAt, &note.UpdatedAt, &note.TaskCount,
		&author.ID, &author.Name, &author.Email,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	note.Author = &author

	collaborators, err := r.GetCollaborators(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	note.Collaborators = collaborators

	return &note, nil
}

func (r *NoteRepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Note, error) {
	query := fmt.Sprintf(`
		SELECT n.id, n.title, n.content, n.author_id, n.is_archived, n.created_at, n.updated_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.note_id = n.id) AS task_count,
			u.id AS author_uid, u.name AS author_name, u.email AS author_email
		FROM notes n
		JOIN users u ON u.id = n.author_id
		WHERE `+noteAccessPredicate+` AND n.is_archived = FALSE
		ORDER BY n.updated_at DESC
		LIMIT $2 OFFSET $3`, "$1")

	rows, err := r.db.QueryxContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*entities.Note
	for rows.Next() {
		var note entities.Note
		var author entities.UserSummary
		if err := rows.Scan(
			&note.ID, &note.Title, &note.Content, &note.AuthorID, &note.IsArchived,
			&note.CreatedAt, &note.UpdatedAt, &note.TaskCount,
			&author.ID, &author.Name, &author.Email,
		); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		note.Author = &author
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return notes, nil
}

func (r *NoteRepositoryImpl) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM notes n
		WHERE `+noteAccessPredicate+` AND n.is_archived = FALSE`, "$1")

	var count int64
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}

	return count, nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entities.Note) error {
	query := `
		UPDATE notes
		SET title = $2, content = $3, is_archived = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.Title, note.Content, note.IsArchived,
	).Scan(&note.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrNoteNotFound
		}
		return fmt.Errorf("update note: %w", err)
	}

	return nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	// Collaborators, tasks and invitations go with the note via ON DELETE CASCADE.
	query := `DELETE FROM notes WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepositoryImpl) GetCollaborators(ctx context.Context, noteID uuid.UUID) ([]entities.NoteCollaborator, error) {
	query := `
		SELECT nc.id, nc.note_id, nc.user_id, nc.role, nc.created_at,
			u.id AS collab_uid, u.name AS collab_name, u.email AS collab_email
		FROM note_collaborators nc
		JOIN users u ON u.id = nc.user_id
		WHERE nc.note_id = $1
		ORDER BY nc.created_at ASC`

	rows, err := r.db.QueryxContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("get collaborators: %w", err)
	}
	defer rows.Close()

	var collaborators []entities.NoteCollaborator
	for rows.Next() {
		var c entities.NoteCollaborator
		var u entities.UserSummary
		if err := rows.Scan(&c.ID, &c.NoteID, &c.UserID, &c.Role, &c.CreatedAt, &u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		c.User = &u
		collaborators = append(collaborators, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get collaborators: %w", err)
	}

	return collaborators, nil
}

func (r *NoteRepositoryImpl) AddCollaborator(ctx context.Context, collab *entities.NoteCollaborator) error {
	query := `
		INSERT INTO note_collaborators (id, note_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if collab.ID == uuid.Nil {
		collab.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		collab.ID, collab.NoteID, collab.UserID, collab.Role,
	).Scan(&collab.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrAlreadyCollaborator
		}
		return fmt.Errorf("add collaborator: %w", err)
	}

	return nil
}

func (r *NoteRepositoryImpl) UpdateCollaboratorRole(ctx context.Context, noteID, userID uuid.UUID, role entities.CollaboratorRole) error {
	query := `UPDATE note_collaborators SET role = $3 WHERE note_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, noteID, userID, role)
	if err != nil {
		return fmt.Errorf("update collaborator role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrCollaboratorNotFound
	}

	return nil
}

func (r *NoteRepositoryImpl) RemoveCollaborator(ctx context.Context, noteID, userID uuid.UUID) error {
	query := `DELETE FROM note_collaborators WHERE note_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, noteID, userID)
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrCollaboratorNotFound
	}

	return nil
}
