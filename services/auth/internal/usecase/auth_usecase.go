package usecase

import (
	"context"
	"strings"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/jwt"
	"avto-sawda/pkg/logger"
	"avto-sawda/services/auth/internal/entity"
	"avto-sawda/services/auth/internal/repo/persistent"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultUsersLimit = 15
	maxUsersLimit     = 100
	maxUsersPage      = 1_000_000
	minPasswordLength = 6
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Phone     string
	Password  string
}

type UserPage struct {
	Users []*entity.User
	Total int64
	Page  int
	Limit int
}

type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*entity.User, string, error)
	Login(ctx context.Context, phone, password string) (*entity.User, string, error)
	Me(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, p entity.Profile) (*entity.User, error)
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
}

type authUseCase struct {
	userRepo   persistent.UserRepository
	jwtService *jwt.Service
	logger     *logger.Logger
}

func NewAuthUseCase(userRepo persistent.UserRepository, jwtService *jwt.Service, logger *logger.Logger) AuthUseCase {
	return &authUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (uc *authUseCase) Register(ctx context.Context, in RegisterInput) (*entity.User, string, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, "", apperr.Validation("phone is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	if _, err := uc.userRepo.GetByPhone(ctx, phone); err == nil {
		return nil, "", apperr.Conflict("phone number already registered")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Wrap(err, "failed to hash password")
	}

	user := &entity.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Phone:         phone,
		PasswordHash:  string(hash),
		Role:          entity.RoleUser,
		SavedListings: []string{},
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := uc.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", apperr.Wrap(err, "failed to issue token")
	}
	uc.logger.Info("User registered: %s", user.ID)
	return user, token, nil
}

// Login does not tell an unknown phone apart from a wrong password.
func (uc *authUseCase) Login(ctx context.Context, phone, password string) (*entity.User, string, error) {
	user, err := uc.userRepo.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, "", apperr.Validation("invalid phone or password")
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", apperr.Validation("invalid phone or password")
	}

	token, err := uc.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", apperr.Wrap(err, "failed to issue token")
	}
	return user, token, nil
}

func (uc *authUseCase) Me(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *authUseCase) UpdateProfile(ctx context.Context, userID string, p entity.Profile) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.FirstName != nil {
		user.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		user.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		if phone == "" {
			return nil, apperr.Validation("phone cannot be empty")
		}
		if phone != user.Phone {
			if _, err := uc.userRepo.GetByPhone(ctx, phone); err == nil {
				return nil, apperr.Conflict("phone number already registered")
			} else if !apperr.Is(err, apperr.KindNotFound) {
				return nil, err
			}
			user.Phone = phone
		}
	}

	if p.NewPassword != "" {
		if p.CurrentPassword == "" {
			return nil, apperr.Validation("current password is required to set a new one")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(p.CurrentPassword)) != nil {
			return nil, apperr.Authorization("current password is incorrect")
		}
		if len(p.NewPassword) < minPasswordLength {
			return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(p.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Wrap(err, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *authUseCase) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if page > maxUsersPage {
		page = maxUsersPage
	}
	if limit < 1 {
		limit = defaultUsersLimit
	}
	if limit > maxUsersLimit {
		limit = maxUsersLimit
	}

	users, total, err := uc.userRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}
