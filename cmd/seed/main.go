package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"avto-sawda/pkg/config"
	"avto-sawda/pkg/database"
	"avto-sawda/pkg/imaging"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/models"
	"avto-sawda/pkg/s3"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultBannerTitle = "Default Banner"

type adminSeed struct {
	FirstName string
	LastName  string
	Phone     string
	Password  string
}

type bannerSeed struct {
	Title string
	Image string
	Link  string
	Order int
}

func main() {
	var (
		admin       adminSeed
		bannerImage string
		bannerURL   string
	)
	flag.StringVar(&admin.Phone, "admin-phone", "+998901234567", "phone of the admin account")
	flag.StringVar(&admin.Password, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the admin account")
	flag.StringVar(&bannerImage, "banner-image", "", "local image uploaded as the default banner")
	flag.StringVar(&bannerURL, "banner-url", "/uploads/default-banner.jpg", "banner image URL used when no file is given")
	flag.Parse()
	admin.FirstName, admin.LastName = "Admin", "Avto Sawda"

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	log := logger.NewWithLevel(cfg.LogLevel)
	defer log.Sync()

	if admin.Password == "" {
		log.Error("Admin password is required: pass -admin-password or set SEED_ADMIN_PASSWORD")
		os.Exit(2)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if _, err := seedAdmin(ctx, db, admin, log); err != nil {
		log.Error("Failed to seed admin: %v", err)
		os.Exit(1)
	}

	banner := bannerSeed{Title: defaultBannerTitle, Image: bannerURL, Link: "/cars", Order: 1}
	if bannerImage != "" {
		url, err := uploadBannerImage(ctx, cfg, bannerImage)
		if err != nil {
			log.Error("Failed to upload banner image: %v", err)
			os.Exit(1)
		}
		banner.Image = url
	}
	if _, err := seedBanner(ctx, db, banner, log); err != nil {
		log.Error("Failed to seed banner: %v", err)
		os.Exit(1)
	}

	log.Info("Database seeded successfully!")
}

// seedAdmin creates the admin account unless the phone is already registered.
func seedAdmin(ctx context.Context, db *gorm.DB, a adminSeed, log *logger.Logger) (bool, error) {
	var existing models.User
	err := db.WithContext(ctx).Where("phone = ?", a.Phone).First(&existing).Error
	if err == nil {
		log.Info("User %s already exists (role %s), skipping", a.Phone, existing.Role)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
		Password:  string(hash),
		Role:      models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	log.Info("Created admin %s (%s)", user.Phone, user.ID)
	return true, nil
}

// seedBanner creates the banner unless one with the same title exists.
func seedBanner(ctx context.Context, db *gorm.DB, b bannerSeed, log *logger.Logger) (bool, error) {
	var existing models.Banner
	err := db.WithContext(ctx).Where("title = ?", b.Title).First(&existing).Error
	if err == nil {
		log.Info("Banner %q already exists (%s), skipping", b.Title, existing.ID)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	banner := &models.Banner{
		Title:    b.Title,
		Image:    b.Image,
		Link:     b.Link,
		Order:    b.Order,
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(banner).Error; err != nil {
		return false, fmt.Errorf("failed to create banner: %w", err)
	}
	log.Info("Created banner %q (%s)", banner.Title, banner.ID)
	return true, nil
}

func uploadBannerImage(ctx context.Context, cfg *config.Config, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	client, err := s3.NewClient(cfg)
	if err != nil {
		return "", err
	}
	stored, err := imaging.NewProcessor(client).Process(ctx, "banners", f)
	if err != nil {
		return "", err
	}
	return stored.Path, nil
}
