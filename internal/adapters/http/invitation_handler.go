package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/notehive/core/internal/application/services"
	"github.com/notehive/core/internal/domain/entities"
)

// InvitationHandler handles the public invitation endpoints
type InvitationHandler struct {
	invitations *services.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// invitationView is the public shape of a pending invitation. It exposes only
// what the landing page needs, never the full note.
type invitationView struct {
	Email     string                    `json:"email"`
	Role      entities.CollaboratorRole `json:"role"`
	NoteTitle string                    `json:"noteTitle"`
	InvitedBy string                    `json:"invitedBy"`
	ExpiresAt string                    `json:"expiresAt"`
}

// Get resolves an invitation token for the landing page. No authentication is
// required so recipients can preview before signing up.
func (h *InvitationHandler) Get(c echo.Context) error {
	invitation, err := h.invitations.GetByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respondDomainError(c, err)
	}

	view := invitationView{
		Email:     invitation.Email,
		Role:      invitation.Role,
		ExpiresAt: invitation.ExpiresAt.Format(time.RFC3339),
	}
	if invitation.Note != nil {
		view.NoteTitle = invitation.Note.Title
	}
	if invitation.InvitedBy != nil {
		view.InvitedBy = invitation.InvitedBy.Name
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"invitation": view})
}

// Accept turns the invitation into collaborator access for the signed-in user.
func (h *InvitationHandler) Accept(c echo.Context) error {
	claims := currentClaims(c)

	collab, err := h.invitations.Accept(c.Request().Context(), c.Param("token"), claims.UserID)
	if err != nil {
		// On accept this is a stale invitation, not a conflicting request.
		if errors.Is(err, entities.ErrAlreadyCollaborator) {
			return respondError(c, http.StatusBadRequest, "ALREADY_COLLABORATOR", "You already have access to this note", nil)
		}
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"collaborator": collab})
}

// Decline deletes the invitation. Like Get, possession of the token suffices.
func (h *InvitationHandler) Decline(c echo.Context) error {
	if err := h.invitations.Decline(c.Request().Context(), c.Param("token")); err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]string{"message": "Invitation declined"})
}
