package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

// NoteService handles note CRUD and collaborator management. Authorization is
// decided here against the loaded note; failed checks surface as not-found so
// callers cannot probe for existence.
type NoteService struct {
	noteRepo ports.NoteRepository
	logger   *logger.Logger
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo ports.NoteRepository, log *logger.Logger) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		logger:   log,
	}
}

func (s *NoteService) Create(ctx context.Context, userID uuid.UUID, req *ports.CreateNoteRequest) (*entities.Note, error) {
	note := &entities.Note{
		ID:       uuid.New(),
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: userID,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	// Reload through the access path so the author summary is populated.
	return s.noteRepo.GetForUser(ctx, note.ID, userID)
}

func (s *NoteService) Get(ctx context.Context, noteID, userID uuid.UUID) (*entities.Note, error) {
	return s.noteRepo.GetForUser(ctx, noteID, userID)
}

func (s *NoteService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Note, int64, error) {
	notes, err := s.noteRepo.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.noteRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

func (s *NoteService) Update(ctx context.Context, noteID, userID uuid.UUID, req *ports.UpdateNoteRequest) (*entities.Note, error) {
	note, err := s.noteRepo.GetForUser(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	if !note.CanEdit(userID) {
		return nil, entities.ErrNoteNotFound
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.IsArchived != nil {
		note.IsArchived = *req.IsArchived
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// Delete is restricted to the note author. Admin collaborators manage people,
// not the note's existence.
func (s *NoteService) Delete(ctx context.Context, noteID, userID uuid.UUID) error {
	note, err := s.noteRepo.GetForUser(ctx, noteID, userID)
	if err != nil {
		return err
	}

	if !note.CanDelete(userID) {
		return entities.ErrNoteNotFound
	}

	if err := s.noteRepo.Delete(ctx, note.ID); err != nil {
		return err
	}

	s.logger.WithUserID(userID.String()).Infow("Note deleted", "note_id", note.ID)

	return nil
}

func (s *NoteService) GetCollaborators(ctx context.Context, noteID, userID uuid.UUID) ([]entities.NoteCollaborator, error) {
	note, err := s.noteRepo.GetForUser(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	return note.Collaborators, nil
}

func (s *NoteService) UpdateCollaboratorRole(ctx context.Context, noteID, actorID, targetID uuid.UUID, role entities.CollaboratorRole) (*entities.NoteCollaborator, error) {
	note, err := s.noteRepo.GetForUser(ctx, noteID, actorID)
	if err != nil {
		return nil, err
	}

	if !note.CanManageCollaborators(actorID) {
		return nil, entities.ErrNoteNotFound
	}

	// The author has no collaborator row, so a role change targeting them
	// falls out as not found.
	if err := s.noteRepo.UpdateCollaboratorRole(ctx, noteID, targetID, role); err != nil {
		return nil, err
	}

	collaborators, err := s.noteRepo.GetCollaborators(ctx, noteID)
	if err != nil {
		return nil, err
	}
	for i := range collaborators {
		if collaborators[i].UserID == targetID {
			return &collaborators[i], nil
		}
	}

	return nil, entities.ErrCollaboratorNotFound
}

func (s *NoteService) RemoveCollaborator(ctx context.Context, noteID, actorID, targetID uuid.UUID) error {
	note, err := s.noteRepo.GetForUser(ctx, noteID, actorID)
	if err != nil {
		return err
	}

	// A collaborator may always remove themselves; removing others needs
	// management rights.
	if actorID != targetID && !note.CanManageCollaborators(actorID) {
		return entities.ErrNoteNotFound
	}

	if note.AuthorID == targetID {
		return entities.ErrCannotRemoveAuthor
	}

	return s.noteRepo.RemoveCollaborator(ctx, noteID, targetID)
}
