package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/deppfellow/restcore/internal/config"
	"github.com/deppfellow/restcore/internal/database"
	"github.com/deppfellow/restcore/internal/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *UserRepository {
	t.Helper()

	dsn := os.Getenv("RESTCORE_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("RESTCORE_TEST_DATABASE_DSN not set")
	}

	logger := zerolog.Nop()
	db, err := database.New(context.Background(), config.DatabaseConfig{
		DSN:               dsn,
		MaxConnections:    2,
		AcquireTimeoutSec: 2,
	}, "test", &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return NewUserRepository(db)
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{
		NickName: fmt.Sprintf("ada-%d", time.Now().UnixNano()),
		Age:      36,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.NickName, got.NickName)
	assert.Equal(t, int16(36), got.Age)
}

func TestGetByIDMissingIsNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), -1)

	assert.True(t, errors.Is(err, errs.ErrDbRowNotFound))
	cond, _ := errs.FromError(err)
	assert.Equal(t, 404, cond.Status())
}

func TestCreateDuplicateNickNameIsConflict(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := User{NickName: fmt.Sprintf("dup-%d", time.Now().UnixNano())}

	_, err := repo.Create(ctx, user)
	require.NoError(t, err)

	_, err = repo.Create(ctx, user)
	assert.True(t, errors.Is(err, errs.ErrDbDataConflict))
}
