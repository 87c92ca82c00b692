package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/movr/backend/internal/application/identity"
	"github.com/movr/backend/internal/interfaces/http/dto"
)

// UserHandler serves rider accounts
type UserHandler struct {
	BaseHandler
	users *identityapp.UserService
}

// NewUserHandler creates a UserHandler
func NewUserHandler(users *identityapp.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register godoc
// @Summary      Register a user
// @Description  Creates a rider account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterUserRequest true "New user"
// @Success      201 {object} dto.Response{data=dto.RegisteredUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.RegisteredUserResponse{
		User:     dto.NewUserResponse(user),
		Messages: []string{identityapp.MsgUserCreated},
	})
}

// Profile godoc
// @Summary      Get a user
// @Description  Returns the profile for an email address
// @Tags         users
// @Produce      json
// @Param        email query string true "User email"
// @Success      200 {object} dto.Response{data=dto.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users [get]
func (h *UserHandler) Profile(c *gin.Context) {
	var q dto.EmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}

	user, err := h.users.Profile(c.Request.Context(), q.Email)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewUserResponse(user))
}

// Login godoc
// @Summary      User login
// @Description  Checks a rider's email and, when signing is configured, issues an access token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=identityapp.LoginResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Email)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete a user
// @Description  Removes a rider account and its rides
// @Tags         users
// @Produce      json
// @Param        email query string true "User email"
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	var q dto.EmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}

	if err := h.users.Delete(c.Request.Context(), q.Email); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Messages(c, identityapp.MsgUserDeleted)
}
