package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/deppfellow/restcore/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const userCacheTTL = 5 * time.Minute

type userStore interface {
	GetByID(ctx context.Context, id int64) (repository.User, error)
	Create(ctx context.Context, user repository.User) (repository.User, error)
}

type objectCache interface {
	GetObject(ctx context.Context, key string, v any) (bool, error)
	SetObject(ctx context.Context, key string, v any, ttl time.Duration) error
}

type UserService struct {
	users userStore
	cache objectCache
}

func NewUserService(users userStore, cache objectCache) *UserService {
	return &UserService{users: users, cache: cache}
}

func userCacheKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// GetByID reads through the cache. The cache is an optimisation only: when
// it fails the lookup falls back to the database.
func (s *UserService) GetByID(ctx context.Context, id int64) (repository.User, error) {
	logger := zerolog.Ctx(ctx)
	key := userCacheKey(id)

	var user repository.User
	found, err := s.cache.GetObject(ctx, key, &user)
	switch {
	case err != nil:
		logger.Warn().Err(err).Int64("user_id", id).Msg("user cache read failed, using database")
	case found:
		return user, nil
	}

	user, err = s.users.GetByID(ctx, id)
	if err != nil {
		return repository.User{}, err
	}

	if err := s.cache.SetObject(ctx, key, user, userCacheTTL); err != nil {
		logger.Warn().Err(err).Int64("user_id", id).Msg("user cache write failed")
	}

	return user, nil
}

// CreateRandom creates a user with generated profile fields. An empty
// nickName is generated too; a taken one fails with db_data_conflict.
func (s *UserService) CreateRandom(ctx context.Context, nickName string) (repository.User, error) {
	if nickName == "" {
		nickName = "user_" + uuid.NewString()[:8]
	}

	user, err := s.users.Create(ctx, repository.User{
		NickName:  nickName,
		Signature: "hello, " + nickName,
		Age:       int16(18 + rand.IntN(60)),
	})
	if err != nil {
		return repository.User{}, err
	}

	zerolog.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("created random user")
	return user, nil
}
