package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notehive/core/internal/domain/entities"
)

func TestAuthRepository_GetRefreshToken_Unknown(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAuthRepository(db)

	mock.ExpectQuery(`SELECT id, user_id, token_hash, expires_at, created_at, revoked_at`).
		WithArgs("deadbeef").
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetRefreshToken(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
}

func TestAuthRepository_GetRefreshToken(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAuthRepository(db)
	userID := uuid.New()
	now := time.Now()

	cols := []string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at"}
	mock.ExpectQuery(`FROM refresh_tokens\s+WHERE token_hash = \$1`).
		WithArgs("cafe").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, userID.String(), "cafe", now.Add(24*time.Hour), now, nil))

	token, err := r.GetRefreshToken(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, userID, token.UserID)
	assert.False(t, token.IsRevoked())
	assert.False(t, token.IsExpired())
}

func TestAuthRepository_RevokeAllUserTokens(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAuthRepository(db)
	userID := uuid.New()

	// Only live tokens are touched; already-revoked rows keep their timestamp.
	mock.ExpectExec(`UPDATE refresh_tokens\s+SET revoked_at = CURRENT_TIMESTAMP\s+WHERE user_id = \$1 AND revoked_at IS NULL`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, r.RevokeAllUserTokens(context.Background(), userID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepository_CleanupExpiredTokens(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAuthRepository(db)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < CURRENT_TIMESTAMP`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, r.CleanupExpiredTokens(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
