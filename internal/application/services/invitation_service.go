package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/config"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

// InvitationService handles the collaborator invitation workflow. Inviting a
// registered user adds them directly; an unknown email gets a pending,
// token-addressed invitation that is consumed on accept or decline.
type InvitationService struct {
	noteRepo       ports.NoteRepository
	userRepo       ports.UserRepository
	invitationRepo ports.InvitationRepository
	auth           *AuthService
	cfg            *config.Config
	logger         *logger.Logger
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	noteRepo ports.NoteRepository,
	userRepo ports.UserRepository,
	invitationRepo ports.InvitationRepository,
	auth *AuthService,
	cfg *config.Config,
	log *logger.Logger,
) *InvitationService {
	return &InvitationService{
		noteRepo:       noteRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		auth:           auth,
		cfg:            cfg,
		logger:         log,
	}
}

// Invite adds the addressed user as a collaborator when the email belongs to a
// registered account, and creates a pending invitation otherwise.
func (s *InvitationService) Invite(ctx context.Context, noteID, actorID uuid.UUID, req *ports.InviteRequest) (*ports.InviteResult, error) {
	note, err := s.noteRepo.GetForUser(ctx, noteID, actorID)
	if err != nil {
		return nil, err
	}

	if !note.CanManageCollaborators(actorID) {
		return nil, entities.ErrNoteNotFound
	}

	role := req.Role
	if role == "" {
		role = entities.RoleViewer
	}

	email := normalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.addDirectly(ctx, note, user, role)
	case err == entities.ErrUserNotFound:
		return s.createInvitation(ctx, note, actorID, email, role)
	default:
		return nil, err
	}
}

func (s *InvitationService) addDirectly(ctx context.Context, note *entities.Note, user *entities.User, role entities.CollaboratorRole) (*ports.InviteResult, error) {
	if note.IsOwner(user.ID) || note.HasMember(user.ID) {
		return nil, entities.ErrAlreadyCollaborator
	}

	collab := &entities.NoteCollaborator{
		ID:     uuid.New(),
		NoteID: note.ID,
		UserID: user.ID,
		Role:   role,
	}

	if err := s.noteRepo.AddCollaborator(ctx, collab); err != nil {
		return nil, err
	}
	collab.User = user.Summary()

	s.logger.Infow("Collaborator added directly",
		"note_id", note.ID, "user_id", user.ID, "role", role)

	return &ports.InviteResult{
		Type:         ports.InviteResultDirectAddition,
		Collaborator: collab,
	}, nil
}

func (s *InvitationService) createInvitation(ctx context.Context, note *entities.Note, actorID uuid.UUID, email string, role entities.CollaboratorRole) (*ports.InviteResult, error) {
	_, err := s.invitationRepo.GetPending(ctx, email, note.ID)
	if err == nil {
		return nil, entities.ErrInvitationExists
	}
	if err != entities.ErrInvitationNotFound {
		return nil, err
	}

	token, err := s.auth.GenerateInvitationToken()
	if err != nil {
		return nil, err
	}

	invitation := &entities.Invitation{
		ID:          uuid.New(),
		Token:       token,
		Email:       email,
		NoteID:      note.ID,
		InvitedByID: actorID,
		Role:        role,
		ExpiresAt:   time.Now().Add(s.cfg.JWT.InvitationExpiresIn),
	}

	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.logger.Infow("Invitation created",
		"note_id", note.ID, "email", email, "role", role)

	return &ports.InviteResult{
		Type:          ports.InviteResultInvitationCreated,
		Invitation:    invitation,
		InvitationURL: s.invitationURL(token),
	}, nil
}

// GetByToken resolves an invitation for the public landing page.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*entities.Invitation, error) {
	if err := s.auth.VerifyInvitationToken(token); err != nil {
		return nil, err
	}

	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if invitation.IsExpired() {
		return nil, entities.ErrInvitationExpired
	}

	return invitation, nil
}

// Accept turns an invitation into a collaborator row for the signed-in user.
// The account email must match the invited address.
func (s *InvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*entities.NoteCollaborator, error) {
	invitation, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(user.Email, invitation.Email) {
		return nil, entities.ErrEmailMismatch
	}

	collab, err := s.invitationRepo.Accept(ctx, invitation, userID)
	if err != nil {
		if err == entities.ErrAlreadyCollaborator {
			// The invitation is stale: the user already got access some
			// other way. Drop it so it cannot be replayed.
			if delErr := s.invitationRepo.Delete(ctx, invitation.ID); delErr != nil && delErr != entities.ErrInvitationNotFound {
				s.logger.WithError(delErr).Warnw("Failed to delete stale invitation", "invitation_id", invitation.ID)
			}
		}
		return nil, err
	}
	collab.User = user.Summary()

	s.logger.WithUserID(userID.String()).Infow("Invitation accepted",
		"note_id", invitation.NoteID, "role", collab.Role)

	return collab, nil
}

// Decline deletes the invitation without granting access. No authentication is
// required; possession of the token is the capability. Expired invitations may
// still be declined.
func (s *InvitationService) Decline(ctx context.Context, token string) error {
	if err := s.auth.VerifyInvitationToken(token); err != nil && err != entities.ErrInvitationExpired {
		return err
	}

	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	return s.invitationRepo.Delete(ctx, invitation.ID)
}

func (s *InvitationService) invitationURL(token string) string {
	return fmt.Sprintf("%s/invitations/%s", strings.TrimRight(s.cfg.App.ClientURL, "/"), token)
}
