package handler

import (
	"github.com/deppfellow/restcore/internal/repository"
	"github.com/deppfellow/restcore/internal/server"
	"github.com/deppfellow/restcore/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

type GetUserRequest struct {
	ID int64 `param:"id" validate:"gt=0"`
}

func (r *GetUserRequest) Validate() error {
	return validate.Struct(r)
}

type RandomUserRequest struct {
	NickName string `query:"nick_name" validate:"omitempty,min=2,max=64"`
}

func (r *RandomUserRequest) Validate() error {
	return validate.Struct(r)
}

type UserHandler struct {
	Handler
	users *service.UserService
}

func NewUserHandler(s *server.Server, users *service.UserService) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(s),
		users:   users,
	}
}

func (h *UserHandler) GetByID(c echo.Context, req *GetUserRequest) (repository.User, error) {
	return h.users.GetByID(c.Request().Context(), req.ID)
}

func (h *UserHandler) Random(c echo.Context, req *RandomUserRequest) (repository.User, error) {
	return h.users.CreateRandom(c.Request().Context(), req.NickName)
}
