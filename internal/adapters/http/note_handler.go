package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notehive/core/internal/application/services"
	"github.com/notehive/core/internal/ports"
)

// NoteHandler handles note and collaborator endpoints
type NoteHandler struct {
	notes       *services.NoteService
	invitations *services.InvitationService
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes *services.NoteService, invitations *services.InvitationService) *NoteHandler {
	return &NoteHandler{notes: notes, invitations: invitations}
}

// Create godoc
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Param request body ports.CreateNoteRequest true "Note data"
// @Success 201 {object} Response
// @Security BearerAuth
// @Router /notes [post]
func (h *NoteHandler) Create(c echo.Context) error {
	claims := currentClaims(c)

	var req ports.CreateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.notes.Create(c.Request().Context(), claims.UserID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusCreated, map[string]interface{}{"note": note})
}

// List returns the caller's accessible, unarchived notes, newest-updated first.
func (h *NoteHandler) List(c echo.Context) error {
	claims := currentClaims(c)
	page, limit, offset := parsePagination(c)

	notes, total, err := h.notes.List(c.Request().Context(), claims.UserID, limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{
		"notes":      notes,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *NoteHandler) Get(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	note, err := h.notes.Get(c.Request().Context(), noteID, claims.UserID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"note": note})
}

func (h *NoteHandler) Update(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.notes.Update(c.Request().Context(), noteID, claims.UserID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"note": note})
}

func (h *NoteHandler) Delete(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notes.Delete(c.Request().Context(), noteID, claims.UserID); err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

// Invite godoc
// @Summary Invite a user to collaborate on a note
// @Description Registered users are added directly; unknown emails get a pending invitation
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param request body ports.InviteRequest true "Invitation data"
// @Success 200 {object} Response
// @Success 201 {object} Response
// @Security BearerAuth
// @Router /notes/{id}/invite [post]
func (h *NoteHandler) Invite(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.InviteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.invitations.Invite(c.Request().Context(), noteID, claims.UserID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	status := http.StatusOK
	if result.Type == ports.InviteResultInvitationCreated {
		status = http.StatusCreated
	}

	return respondData(c, status, result)
}

func (h *NoteHandler) ListCollaborators(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	collaborators, err := h.notes.GetCollaborators(c.Request().Context(), noteID, claims.UserID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"collaborators": collaborators})
}

func (h *NoteHandler) UpdateCollaboratorRole(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	targetID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return err
	}

	var req ports.UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	collab, err := h.notes.UpdateCollaboratorRole(c.Request().Context(), noteID, claims.UserID, targetID, req.Role)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"collaborator": collab})
}

func (h *NoteHandler) RemoveCollaborator(c echo.Context) error {
	claims := currentClaims(c)

	noteID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	targetID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return err
	}

	if err := h.notes.RemoveCollaborator(c.Request().Context(), noteID, claims.UserID, targetID); err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]string{"message": "Collaborator removed successfully"})
}
