package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

// TaskService handles task CRUD. Creating tasks follows the note role; editing
// and deleting follow task authorship and assignment instead.
type TaskService struct {
	taskRepo ports.TaskRepository
	noteRepo ports.NoteRepository
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, noteRepo ports.NoteRepository, log *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		noteRepo: noteRepo,
		logger:   log,
	}
}

func (s *TaskService) Create(ctx context.Context, noteID, userID uuid.UUID, req *ports.CreateTaskRequest) (*entities.Task, error) {
	note, err := s.noteRepo.GetForUser(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	if !note.CanEdit(userID) {
		return nil, entities.ErrNoteNotFound
	}

	if req.AssigneeID != nil && !s.canAssign(note, *req.AssigneeID) {
		return nil, entities.ErrInvalidAssignee
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}

	task := &entities.Task{
		ID:          uuid.New(),
		NoteID:      note.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      entities.TaskStatusPending,
		Priority:    priority,
		DueDate:     req.DueDate,
		AuthorID:    userID,
		AssigneeID:  req.AssigneeID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	// Reload so author and assignee summaries are populated.
	return s.taskRepo.GetForUser(ctx, task.ID, userID)
}

func (s *TaskService) Get(ctx context.Context, taskID, userID uuid.UUID) (*entities.Task, error) {
	return s.taskRepo.GetForUser(ctx, taskID, userID)
}

func (s *TaskService) Update(ctx context.Context, taskID, userID uuid.UUID, req *ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetForUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if !task.CanEdit(userID) {
		return nil, entities.ErrTaskNotFound
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.ClearDue {
		task.DueDate = nil
	} else if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if req.Unassign {
		task.AssigneeID = nil
		task.Assignee = nil
	} else if req.AssigneeID != nil {
		note, err := s.noteRepo.GetForUser(ctx, task.NoteID, userID)
		if err != nil {
			return nil, err
		}
		if !s.canAssign(note, *req.AssigneeID) {
			return nil, entities.ErrInvalidAssignee
		}
		task.AssigneeID = req.AssigneeID
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return s.taskRepo.GetForUser(ctx, task.ID, userID)
}

func (s *TaskService) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	task, err := s.taskRepo.GetForUser(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if !task.CanDelete(userID) {
		return entities.ErrTaskNotFound
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return err
	}

	s.logger.WithUserID(userID.String()).Infow("Task deleted",
		"task_id", task.ID, "note_id", task.NoteID)

	return nil
}

func (s *TaskService) ListByNote(ctx context.Context, noteID, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, int64, error) {
	// Any member of the note may list its tasks.
	if _, err := s.noteRepo.GetForUser(ctx, noteID, userID); err != nil {
		return nil, 0, err
	}

	tasks, err := s.taskRepo.ListByNote(ctx, noteID, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.taskRepo.CountByNote(ctx, noteID, filter)
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (s *TaskService) ListForUser(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, int64, error) {
	tasks, err := s.taskRepo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.taskRepo.CountForUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// canAssign allows assignment to the note author or any collaborator.
func (s *TaskService) canAssign(note *entities.Note, assigneeID uuid.UUID) bool {
	return note.IsOwner(assigneeID) || note.HasMember(assigneeID)
}
