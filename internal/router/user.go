package router

import (
	"github.com/deppfellow/restcore/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerUserRoutes(r *echo.Echo, h *handler.Handlers) {
	users := r.Group("/user")

	users.GET("/random", handler.Handle(h.User.Random, func() *handler.RandomUserRequest {
		return &handler.RandomUserRequest{}
	}))
	users.GET("/:id", handler.Handle(h.User.GetByID, func() *handler.GetUserRequest {
		return &handler.GetUserRequest{}
	}))
}
