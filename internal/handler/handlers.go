package handler

import (
	"github.com/deppfellow/restcore/internal/server"
	"github.com/deppfellow/restcore/internal/service"
)

// Handlers groups all HTTP handlers so router setup receives one object.
type Handlers struct {
	Health *HealthHandler
	User   *UserHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(s),
		User:   NewUserHandler(s, services.User),
	}
}
