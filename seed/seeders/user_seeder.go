package seeders

import (
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/services"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// UserSeeder creates the default admin and a handful of demo accounts for
// local development.
type UserSeeder struct {
	db          *gorm.DB
	passwordSvc *services.PasswordService
}

func NewUserSeeder(db *gorm.DB) *UserSeeder {
	return &UserSeeder{
		db:          db,
		passwordSvc: &services.PasswordService{},
	}
}

func (s *UserSeeder) SeedAdmin() error {
	var existing model.User
	if err := s.db.Where("role = ?", shared.RoleAdmin).First(&existing).Error; err == nil {
		log.Println("Admin user already exists, skipping admin seeding")
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin-password-123"
	}

	hashed, err := s.passwordSvc.Hash(password)
	if err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	now := time.Now()
	admin := model.User{
		ID:                 id.String(),
		Email:              "admin@rephrase.dev",
		Username:           "admin",
		Password:           hashed,
		Role:               shared.RoleAdmin,
		EmailVerified:      true,
		Plan:               shared.PlanPro,
		SubscriptionStatus: shared.SubscriptionActive,
		UsageReset:         now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s", admin.Email)
	return nil
}

func (s *UserSeeder) SeedDemoUsers() error {
	demos := []struct {
		email    string
		username string
		plan     string
		status   string
		verified bool
	}{
		{"free@rephrase.dev", "demo_free", shared.PlanFree, shared.SubscriptionInactive, true},
		{"basic@rephrase.dev", "demo_basic", shared.PlanBasic, shared.SubscriptionActive, true},
		{"pro@rephrase.dev", "demo_pro", shared.PlanPro, shared.SubscriptionActive, true},
		{"unverified@rephrase.dev", "demo_unverified", shared.PlanFree, shared.SubscriptionInactive, false},
	}

	hashed, err := s.passwordSvc.Hash("demo-password-123")
	if err != nil {
		return err
	}

	for _, d := range demos {
		var existing model.User
		if err := s.db.Where("email = ?", d.email).First(&existing).Error; err == nil {
			continue
		}

		id, err := uuid.NewV7()
		if err != nil {
			return err
		}

		now := time.Now()
		user := model.User{
			ID:                 id.String(),
			Email:              d.email,
			Username:           d.username,
			Password:           hashed,
			Role:               shared.RoleUser,
			EmailVerified:      d.verified,
			Plan:               d.plan,
			SubscriptionStatus: d.status,
			UsageReset:         now,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		if err := s.db.Create(&user).Error; err != nil {
			return err
		}

		log.Printf("Created demo user: %s (%s)", user.Email, user.Plan)
	}

	return nil
}
