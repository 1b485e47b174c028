package service

import (
	"github.com/deppfellow/restcore/internal/repository"
	"github.com/deppfellow/restcore/internal/server"
)

type Services struct {
	User *UserService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		User: NewUserService(repos.User, s.Cache),
	}, nil
}
