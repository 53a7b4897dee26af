package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/ports"
)

// taskOrderClause is the fixed multi-key sort for every task listing:
// status bucket first, then priority, earliest due date, newest creation.
const taskOrderClause = `
	ORDER BY
		CASE t.status
			WHEN 'pending' THEN 0
			WHEN 'in_progress' THEN 1
			WHEN 'completed' THEN 2
			ELSE 3
		END,
		CASE t.priority
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			ELSE 3
		END,
		t.due_date ASC NULLS LAST,
		t.created_at DESC`

const taskSelectColumns = `
	t.id, t.note_id, t.title, t.description, t.status, t.priority, t.due_date,
	t.author_id, t.assignee_id, t.created_at, t.updated_at,
	a.id AS author_uid, a.name AS author_name, a.email AS author_email,
	s.id AS assignee_uid, s.name AS assignee_name, s.email AS assignee_email`

const taskJoins = `
	JOIN users a ON a.id = t.author_id
	LEFT JOIN users s ON s.id = t.assignee_id`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, note_id, title, description, status, priority, due_date, author_id, assignee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.NoteID, task.Title, task.Description, task.Status,
		task.Priority, task.DueDate, task.AuthorID, task.AssigneeID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT `+taskSelectColumns+`
		FROM tasks t
		JOIN notes n ON n.id = t.note_id`+taskJoins+`
		WHERE t.id = $1 AND `+noteAccessPredicate, "$2")

	row := r.db.QueryRowxContext(ctx, query, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5,
			due_date = $6, assignee_id = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.AssigneeID,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) ListByNote(ctx context.Context, noteID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	conditions := []string{"t.note_id = $1"}
	args := []interface{}{noteID}
	conditions, args = appendTaskFilter(conditions, args, filter)

	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks t` + taskJoins + `
		WHERE ` + strings.Join(conditions, " AND ") + taskOrderClause +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	return r.listTasks(ctx, query, args)
}

func (r *TaskRepositoryImpl) CountByNote(ctx context.Context, noteID uuid.UUID, filter ports.TaskFilter) (int64, error) {
	conditions := []string{"t.note_id = $1"}
	args := []interface{}{noteID}
	conditions, args = appendTaskFilter(conditions, args, filter)

	query := `SELECT COUNT(*) FROM tasks t WHERE ` + strings.Join(conditions, " AND ")

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

func (r *TaskRepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	conditions := []string{fmt.Sprintf(noteAccessPredicate, "$1")}
	args := []interface{}{userID}
	conditions, args = appendTaskFilter(conditions, args, filter)

	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks t
		JOIN notes n ON n.id = t.note_id` + taskJoins + `
		WHERE ` + strings.Join(conditions, " AND ") + taskOrderClause +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	return r.listTasks(ctx, query, args)
}

func (r *TaskRepositoryImpl) CountForUser(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) (int64, error) {
	conditions := []string{fmt.Sprintf(noteAccessPredicate, "$1")}
	args := []interface{}{userID}
	conditions, args = appendTaskFilter(conditions, args, filter)

	query := `
		SELECT COUNT(*) FROM tasks t
		JOIN notes n ON n.id = t.note_id
		WHERE ` + strings.Join(conditions, " AND ")

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

func appendTaskFilter(conditions []string, args []interface{}, filter ports.TaskFilter) ([]string, []interface{}) {
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		conditions = append(conditions, fmt.Sprintf("t.assignee_id = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conditions = append(conditions, fmt.Sprintf("t.priority = $%d", len(args)))
	}
	return conditions, args
}

func (r *TaskRepositoryImpl) listTasks(ctx context.Context, query string, args []interface{}) ([]*entities.Task, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entities.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*entities.Task, error) {
	var task entities.Task
	var author entities.UserSummary
	var assigneeID, assigneeName, assigneeEmail sql.NullString

	err := row.Scan(
		&task.ID, &task.NoteID, &task.Title, &task.Description, &task.Status,
		&task.Priority, &task.DueDate, &task.AuthorID, &task.AssigneeID,
		&task.CreatedAt, &task.UpdatedAt,
		&author.ID, &author.Name, &author.Email,
		&assigneeID, &assigneeName, &assigneeEmail,
	)
	if err != nil {
		return nil, err
	}

	task.Author = &author
	if assigneeID.Valid {
		id, err := uuid.Parse(assigneeID.String)
		if err != nil {
			return nil, fmt.Errorf("parse assignee id: %w", err)
		}
		task.Assignee = &entities.UserSummary{ID: id, Name: assigneeName.String, Email: assigneeEmail.String}
	}

	return &task, nil
}
