package usecase

import (
	"context"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/repo/persistent"
	"avto-sawda/services/listing/internal/syndication"

	"golang.org/x/crypto/bcrypt"
)

type AccountUseCase interface {
	Saved(ctx context.Context, userID string) ([]*entity.Listing, error)
	DeleteAccount(ctx context.Context, userID, password string) error
	DeleteUser(ctx context.Context, actor entity.Actor, userID string) error
}

type accountUseCase struct {
	listings persistent.ListingRepository
	users    persistent.UserRepository
	objects  ObjectRemover
	tasks    syndication.Dispatcher
	logger   *logger.Logger
}

func NewAccountUseCase(
	listings persistent.ListingRepository,
	users persistent.UserRepository,
	objects ObjectRemover,
	tasks syndication.Dispatcher,
	logger *logger.Logger,
) AccountUseCase {
	return &accountUseCase{
		listings: listings,
		users:    users,
		objects:  objects,
		tasks:    tasks,
		logger:   logger,
	}
}

func (uc *accountUseCase) Saved(ctx context.Context, userID string) ([]*entity.Listing, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.listings.ListByIDs(ctx, user.SavedListings)
}

// DeleteAccount checks password when one is given, then removes the user with
// everything they own.
func (uc *accountUseCase) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if password != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return apperr.Authorization("incorrect password")
		}
	}
	return uc.cascade(ctx, user.ID)
}

func (uc *accountUseCase) DeleteUser(ctx context.Context, actor entity.Actor, userID string) error {
	if !actor.IsAdmin() {
		return apperr.Authorization("admin access required")
	}
	if actor.UserID == userID {
		return apperr.Validation("you cannot delete your own account here")
	}
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return err
	}
	return uc.cascade(ctx, userID)
}

// cascade deletes owned listings, purges them from saved sets, then deletes the user.
func (uc *accountUseCase) cascade(ctx context.Context, userID string) error {
	owned, err := uc.listings.DeleteByOwner(ctx, userID)
	if err != nil {
		return err
	}
	if err := purge(ctx, uc.users, uc.tasks, uc.objects, uc.logger, owned); err != nil {
		return err
	}
	if err := uc.users.Delete(ctx, userID); err != nil {
		return err
	}
	uc.logger.Info("User %s deleted with %d listings", userID, len(owned))
	return nil
}
