package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

type UserHandler struct {
	userSvc UserServiceInterface
}

func NewUserHandler(userSvc UserServiceInterface) *UserHandler {
	return &UserHandler{
		userSvc: userSvc,
	}
}

// @Summary Get user profile
// @Description Get the authenticated user's profile with plan and usage details
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UserProfileResponse}
// @Router /api/v1/me [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := c.Locals(shared.Principal).(*model.User)
	if !ok {
		return shared.ErrTokenInvalid("")
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", h.userSvc.GetProfile(user))
}
