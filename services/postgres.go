package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "rephrase_api")
		sslmode := envOr("DB_SSLMODE", "disable")
		timezone := envOr("DB_TIMEZONE", "UTC")

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				} else {
					err = pingErr
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err := ds.db.AutoMigrate(&model.User{}); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// HandleError maps storage faults to typed failures for the boundary layer.
func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		} else if strings.Contains(err.Error(), "connection refused") {
			statusCode = http.StatusServiceUnavailable
			errorType = "DATABASE_CONNECTION_ERROR"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

// Find operations return (nil, nil) on miss. Callers decide what a miss
// means; the identity resolver collapses it to an account-not-found failure.

func (ds *PostgresService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByID(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmailOrUsername(email, username string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ? OR username = ?", email, username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByStripeCustomerID(customerID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

// CreateUser wraps the existence check and the insert in one transaction.
// Two concurrent registrations with the same email cannot both pass the
// check: the loser hits the unique index and surfaces AlreadyExists.
func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		var existing model.User
		err := tx.Where("email = ? OR username = ?", user.Email, user.Username).First(&existing).Error
		if err == nil {
			return shared.ErrAlreadyExists("User with this email or username already exists")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(user).Error
	})
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok {
			return nil, appErr
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.ErrAlreadyExists("User with this email or username already exists")
		}
		return nil, ds.HandleError(err)
	}
	return user, nil
}

func (ds *PostgresService) UpdateUser(user *model.User) error {
	user.UpdatedAt = time.Now()
	if err := ds.db.Save(user).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// AddMonthlyUsage commits consumed quota after the operation that consumed it
// has succeeded. The increment is atomic in the database so concurrent
// requests never lose updates.
func (ds *PostgresService) AddMonthlyUsage(userID string, characters int64) error {
	err := ds.db.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("monthly_characters_used", gorm.Expr("monthly_characters_used + ?", characters)).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ResetMonthlyUsage zeroes usage counters for accounts whose billing period
// rolled over before cutoff.
func (ds *PostgresService) ResetMonthlyUsage(cutoff time.Time) (int64, error) {
	result := ds.db.Model(&model.User{}).
		Where("usage_reset < ?", cutoff).
		Updates(map[string]interface{}{
			"monthly_characters_used": 0,
			"usage_reset":             time.Now(),
		})
	if result.Error != nil {
		return 0, ds.HandleError(result.Error)
	}
	return result.RowsAffected, nil
}

func (ds *PostgresService) UpdateSubscription(userID, plan, status string) error {
	err := ds.db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan":                plan,
			"subscription_status": status,
		}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) SetStripeCustomerID(userID, customerID string) error {
	err := ds.db.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("stripe_customer_id", customerID).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) SetLastLogin(userID string, at time.Time) error {
	err := ds.db.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", at).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
