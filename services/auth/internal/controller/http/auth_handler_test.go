package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/middleware"
	"avto-sawda/services/auth/internal/entity"
	"avto-sawda/services/auth/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, string, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) Login(ctx context.Context, phone, password string) (*entity.User, string, error) {
	args := m.Called(phone, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) Me(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUseCase) UpdateProfile(ctx context.Context, userID string, p entity.Profile) (*entity.User, error) {
	args := m.Called(userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUseCase) ListUsers(ctx context.Context, page, limit int) (*usecase.UserPage, error) {
	args := m.Called(page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UserPage), args.Error(1)
}

var _ usecase.AuthUseCase = (*MockAuthUseCase)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func asUser(id string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextUserRole, middleware.RoleUser)
		h(c)
	}
}

func newAuthRouter(uc *MockAuthUseCase) *gin.Engine {
	h := NewAuthHandler(uc, logger.FromZap(zap.NewNop()))
	r := setupTestRouter()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", asUser("user-123", h.Me))
	r.PUT("/auth/profile", asUser("user-123", h.UpdateProfile))
	r.GET("/auth/users", h.ListUsers)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sampleUser() *entity.User {
	return &entity.User{ID: "user-123", FirstName: "Aziz", LastName: "Karimov", Phone: "+998901234567", Role: entity.RoleUser, SavedListings: []string{"car-1"}}
}

func TestRegister_Success(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	in := usecase.RegisterInput{FirstName: "Aziz", LastName: "Karimov", Phone: "+998901234567", Password: "secret1"}
	uc.On("Register", in).Return(sampleUser(), "token-abc", nil)

	w := doJSON(r, "POST", "/auth/register", map[string]string{
		"firstName": "Aziz", "lastName": "Karimov", "phone": "+998901234567", "password": "secret1",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "token-abc", body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Aziz Karimov", user["name"])
	assert.NotContains(t, user, "savedCars")
	uc.AssertExpectations(t)
}

func TestRegister_InvalidBody(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)

	w := doJSON(r, "POST", "/auth/register", map[string]string{"phone": "+1", "password": "123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
	uc.AssertNotCalled(t, "Register", mock.Anything)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	uc.On("Register", mock.Anything).Return(nil, "", apperr.Conflict("phone number already registered"))

	w := doJSON(r, "POST", "/auth/register", map[string]string{
		"firstName": "A", "lastName": "B", "phone": "+1", "password": "secret1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "phone number already registered", decode(t, w)["message"])
}

func TestLogin(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	uc.On("Login", "+1", "good").Return(sampleUser(), "token-abc", nil)
	uc.On("Login", "+1", "bad").Return(nil, "", apperr.Validation("invalid phone or password"))
	uc.On("Login", "+2", "any").Return(nil, "", errors.New("db down"))

	w := doJSON(r, "POST", "/auth/login", map[string]string{"phone": "+1", "password": "good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-abc", decode(t, w)["token"])

	w = doJSON(r, "POST", "/auth/login", map[string]string{"phone": "+1", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, "POST", "/auth/login", map[string]string{"phone": "+2", "password": "any"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to log in", decode(t, w)["message"])

	w = doJSON(r, "POST", "/auth/login", map[string]string{"phone": "+1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_IncludesSavedCars(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	uc.On("Me", "user-123").Return(sampleUser(), nil)

	w := doJSON(r, "GET", "/auth/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, []interface{}{"car-1"}, user["savedCars"])
}

func TestUpdateProfile_EmptyFieldsAreLeftAlone(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	first := "Bekzod"
	uc.On("UpdateProfile", "user-123", entity.Profile{FirstName: &first, CurrentPassword: "old", NewPassword: "newpass"}).
		Return(sampleUser(), nil)

	w := doJSON(r, "PUT", "/auth/profile", map[string]string{
		"firstName": "Bekzod", "lastName": "", "currentPassword": "old", "newPassword": "newpass",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestUpdateProfile_WrongCurrentPassword(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	uc.On("UpdateProfile", "user-123", mock.Anything).Return(nil, apperr.Authorization("current password is incorrect"))

	w := doJSON(r, "PUT", "/auth/profile", map[string]string{"currentPassword": "x", "newPassword": "newpass"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListUsers(t *testing.T) {
	uc := new(MockAuthUseCase)
	r := newAuthRouter(uc)
	uc.On("ListUsers", 2, 0).Return(&usecase.UserPage{
		Users: []*entity.User{sampleUser()},
		Total: 16,
		Page:  2,
		Limit: 15,
	}, nil)

	w := doJSON(r, "GET", "/auth/users?page=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(16), body["total"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Equal(t, false, body["hasMore"])
}
