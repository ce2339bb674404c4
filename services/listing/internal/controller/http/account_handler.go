package http

import (
	"net/http"

	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/middleware"
	"avto-sawda/pkg/response"
	"avto-sawda/services/listing/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountUseCase usecase.AccountUseCase
	logger         *logger.Logger
}

func NewAccountHandler(accountUseCase usecase.AccountUseCase, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		logger:         logger,
	}
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// SavedCars godoc
// @Summary      List saved cars
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /account/saved [get]
func (h *AccountHandler) SavedCars(c *gin.Context) {
	listings, err := h.accountUseCase.Saved(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, listings)
}

// DeleteAccount godoc
// @Summary      Delete my account
// @Description  Deletes the caller with all their cars. A given password must match.
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DeleteAccountRequest false "Current password"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /account [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	var req DeleteAccountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.accountUseCase.DeleteAccount(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Password); err != nil {
		h.logger.Warn("Account deletion failed: %v", err)
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Account deleted successfully")
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Admin only. Deletes the user with all their cars.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /users/{id} [delete]
func (h *AccountHandler) DeleteUser(c *gin.Context) {
	if err := h.accountUseCase.DeleteUser(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted successfully")
}
