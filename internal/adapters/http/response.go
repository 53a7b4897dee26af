package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/notehive/core/internal/domain/entities"
)

// Response is the envelope every endpoint answers with. Exactly one of Data
// and Error is set.
type Response struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload carries a machine-readable code alongside the message.
type ErrorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Pagination is the listing metadata block. Pages are 1-based.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination derives the metadata block from the request window and the
// total row count.
func NewPagination(page, limit int, totalCount int64) Pagination {
	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func respondData(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func respondError(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, Response{
		Success: false,
		Error:   &ErrorPayload{Code: code, Message: message, Details: details},
	})
}

// respondDomainError translates service-layer sentinel errors to the wire.
// Unknown errors become a 500 without leaking internals.
func respondDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrUserAlreadyExists):
		return respondError(c, http.StatusConflict, "USER_ALREADY_EXISTS", "A user with this email already exists", nil)
	case errors.Is(err, entities.ErrInvalidCredentials):
		return respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	case errors.Is(err, entities.ErrUserNotFound):
		return respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	case errors.Is(err, entities.ErrNoteNotFound):
		return respondError(c, http.StatusNotFound, "NOTE_NOT_FOUND", "Note not found", nil)
	case errors.Is(err, entities.ErrTaskNotFound):
		return respondError(c, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil)
	case errors.Is(err, entities.ErrInvitationNotFound):
		return respondError(c, http.StatusNotFound, "INVITATION_NOT_FOUND", "Invitation not found", nil)
	case errors.Is(err, entities.ErrInvitationExpired):
		return respondError(c, http.StatusBadRequest, "INVITATION_EXPIRED", "This invitation has expired", nil)
	case errors.Is(err, entities.ErrInvitationExists):
		return respondError(c, http.StatusConflict, "INVITATION_ALREADY_EXISTS", "A pending invitation already exists for this email", nil)
	case errors.Is(err, entities.ErrAlreadyCollaborator):
		return respondError(c, http.StatusConflict, "ALREADY_COLLABORATOR", "User is already a collaborator on this note", nil)
	case errors.Is(err, entities.ErrCollaboratorNotFound):
		return respondError(c, http.StatusNotFound, "COLLABORATOR_NOT_FOUND", "Collaborator not found", nil)
	case errors.Is(err, entities.ErrCannotRemoveAuthor):
		return respondError(c, http.StatusBadRequest, "CANNOT_REMOVE_AUTHOR", "The note author cannot be removed", nil)
	case errors.Is(err, entities.ErrEmailMismatch):
		return respondError(c, http.StatusForbidden, "EMAIL_MISMATCH", "This invitation was sent to a different email address", nil)
	case errors.Is(err, entities.ErrInvalidAssignee):
		return respondError(c, http.StatusBadRequest, "INVALID_ASSIGNEE", "Assignee must have access to the note", nil)
	case errors.Is(err, entities.ErrInvalidToken):
		return respondError(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid token", nil)
	case errors.Is(err, entities.ErrTokenExpired):
		return respondError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", nil)
	default:
		c.Logger().Error(err)
		return respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred", nil)
	}
}

// respondValidationError unpacks validator failures into per-field details.
func respondValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]map[string]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, map[string]string{
				"field":   fe.Field(),
				"message": validationMessage(fe),
			})
		}
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", nil)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "notepassword":
		return "must contain at least one letter and one digit"
	default:
		return "is invalid"
	}
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", nil)
	}
	if err := c.Validate(req); err != nil {
		return respondValidationError(c, err)
	}
	return nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, respondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Invalid %s parameter", name), nil)
	}
	return id, nil
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePagination reads page/limit query parameters, clamping to sane bounds.
func parsePagination(c echo.Context) (page, limit, offset int) {
	page = 1
	limit = defaultPageLimit

	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit, (page - 1) * limit
}
