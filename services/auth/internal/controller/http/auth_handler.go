package http

import (
	"net/http"
	"strconv"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/middleware"
	"avto-sawda/pkg/response"
	"avto-sawda/services/auth/internal/entity"
	"avto-sawda/services/auth/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	logger      *logger.Logger
}

func NewAuthHandler(authUseCase usecase.AuthUseCase, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
	Phone     string `json:"phone" binding:"required,max=20"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName       string `json:"firstName" binding:"max=50"`
	LastName        string `json:"lastName" binding:"max=50"`
	Phone           string `json:"phone" binding:"max=20"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserView is the public shape of a user.
type UserView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Role      string   `json:"role"`
	SavedCars []string `json:"savedCars,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

func viewOf(u *entity.User, withSaved bool) UserView {
	v := UserView{
		ID:        u.ID,
		Name:      u.FirstName + " " + u.LastName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role,
	}
	if withSaved {
		v.SavedCars = u.SavedListings
		if v.SavedCars == nil {
			v.SavedCars = []string{}
		}
	}
	if !u.CreatedAt.IsZero() {
		v.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	if apperr.KindOf(err) == apperr.KindUnexpected {
		h.logger.Error("Failed to %s: %v", op, err)
		response.Fail(c, http.StatusInternalServerError, "Failed to "+op)
		return
	}
	response.Error(c, err)
}

func userWithToken(c *gin.Context, status int, u *entity.User, token string) {
	c.JSON(status, gin.H{"success": true, "token": token, "user": viewOf(u, false)})
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user account keyed by phone number and returns a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.authUseCase.Register(c.Request.Context(), usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	userWithToken(c, http.StatusCreated, user, token)
}

// Login godoc
// @Summary      Login user
// @Description  Authenticate by phone and password and return a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "phone and password are required")
		return
	}

	user, token, err := h.authUseCase.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			response.Fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.fail(c, "log in", err)
		return
	}
	userWithToken(c, http.StatusOK, user, token)
}

// Me godoc
// @Summary      Get current user info
// @Description  The authenticated user, including saved car ids
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUseCase.Me(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.fail(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": viewOf(user, true)})
}

// UpdateProfile godoc
// @Summary      Update profile
// @Description  Empty fields are left unchanged. Setting newPassword requires currentPassword.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authUseCase.UpdateProfile(c.Request.Context(), c.GetString(middleware.ContextUserID), entity.Profile{
		FirstName:       optional(req.FirstName),
		LastName:        optional(req.LastName),
		Phone:           optional(req.Phone),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.fail(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": viewOf(user, false)})
}

// ListUsers godoc
// @Summary      List users
// @Description  Admin only. Newest first.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size, default 15"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /auth/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	res, err := h.authUseCase.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		h.fail(c, "list users", err)
		return
	}

	users := make([]UserView, 0, len(res.Users))
	for _, u := range res.Users {
		users = append(users, viewOf(u, false))
	}
	response.Paginated(c, users, response.NewPagination(res.Total, res.Page, res.Limit))
}
