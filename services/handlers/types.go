package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/model"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	RequiredAuth() fiber.Handler
	RequireVerified() fiber.Handler
	RequireActiveSubscription() fiber.Handler
	RequireRole(role string) fiber.Handler
}

type UserServiceInterface interface {
	GetProfile(user *model.User) *dto.UserProfileResponse
}

type ParaphraseServiceInterface interface {
	Paraphrase(c *fiber.Ctx, text, mode string) (string, bool, error)
}

type DocumentServiceInterface interface {
	MaxBytes() int64
	Supported(contentType string) bool
	ExtractText(fileBytes []byte, contentType string) (string, error)
}

type EntitlementServiceInterface interface {
	PlanLimit(plan string) (int64, bool)
	Check(u *model.User, charactersNeeded int64) error
}

type UsageWriterInterface interface {
	AddMonthlyUsage(userID string, characters int64) error
}

type StorageServiceInterface interface {
	ArchiveUpload(userID, filename, contentType string, data []byte)
}

type PaymentServiceInterface interface {
	CreateCheckoutSession(user *model.User, plan string) (*dto.CheckoutResponse, error)
	CreatePaymentIntent(req dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error)
	HandleWebhook(c *fiber.Ctx, payload []byte, signature string) (*dto.WebhookResponse, error)
}
