package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	_ "github.com/rephrase-labs/rephrase_api/docs"
	"github.com/rephrase-labs/rephrase_api/services/handlers"
	"github.com/rephrase-labs/rephrase_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc        *AuthService
	rateLimitSvc   *RateLimitService
	userSvc        *UserService
	paraphraseSvc  *ParaphraseService
	documentSvc    *DocumentService
	entitlementSvc *EntitlementService
	paymentSvc     *PaymentService
	storageSvc     *StorageService
	sqlSvc         *PostgresService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	svc.paraphraseSvc = svc.Service(PARAPHRASE_SVC).(*ParaphraseService)
	svc.documentSvc = svc.Service(DOCUMENT_SVC).(*DocumentService)
	svc.entitlementSvc = svc.Service(ENTITLEMENT_SVC).(*EntitlementService)
	svc.paymentSvc = svc.Service(PAYMENT_SVC).(*PaymentService)
	svc.storageSvc = svc.Service(STORAGE_SVC).(*StorageService)
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)

	app := fiber.New(fiber.Config{
		BodyLimit:             MaxUploadBytes + 1024*1024,
		JSONEncoder:           shared.SonicMarshal,
		JSONDecoder:           shared.SonicUnmarshal,
		ErrorHandler:          svc.handleError,
		DisableStartupMessage: os.Getenv("LOG_LEVEL") == "INFO",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(HTTPMetrics())

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	svc.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ErrNotFound("Page not found")
	})

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	userHandler := handlers.NewUserHandler(svc.userSvc)
	paraphraseHandler := handlers.NewParaphraseHandler(
		svc.paraphraseSvc, svc.documentSvc, svc.entitlementSvc, svc.sqlSvc, svc.storageSvc)
	paymentHandler := handlers.NewPaymentHandler(svc.paymentSvc)

	rl := svc.rateLimitSvc

	v1 := app.Group("/api/v1")

	v1.Get("/ping", svc.ping)

	v1.Post("/register", rl.Limit("register"), authHandler.Register)
	v1.Post("/login", rl.Limit("login"), authHandler.Login)

	v1.Get("/me", svc.authSvc.RequiredAuth(), userHandler.GetProfile)

	// Text paraphrasing is open to anonymous callers behind the rate limit;
	// a presented token resolves the principal and puts the request under
	// that account's entitlement.
	v1.Post("/paraphrase",
		rl.Limit("paraphrase"),
		svc.authSvc.OptionalAuth(),
		paraphraseHandler.Paraphrase)

	// Guard order on paid endpoints: rate limit, credential check, account
	// state, then entitlement inside the handler with the real character
	// count.

	v1.Post("/paraphrase/document",
		rl.Limit("document"),
		svc.authSvc.RequiredAuth(),
		svc.authSvc.RequireVerified(),
		svc.authSvc.RequireActiveSubscription(),
		paraphraseHandler.ParaphraseDocument)

	v1.Post("/payments/checkout",
		rl.Limit("checkout"),
		svc.authSvc.RequiredAuth(),
		svc.authSvc.RequireVerified(),
		paymentHandler.CreateCheckout)

	v1.Post("/payments/create",
		rl.Limit("checkout"),
		svc.authSvc.RequiredAuth(),
		paymentHandler.CreatePaymentIntent)

	// Webhooks authenticate by signature, not bearer token.
	v1.Post("/webhooks/payment", paymentHandler.HandleWebhook)
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.Code == shared.CodeRateLimited {
			if data, ok := appErr.Data.(map[string]int); ok {
				c.Set("Retry-After", strconv.Itoa(data["retry_after"]))
			}
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		// fiber raises 413 itself when the body exceeds BodyLimit
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).WithFields(log.Fields{
		"path":   c.Path(),
		"method": c.Method(),
	}).Error("Unhandled error")

	return shared.ResponseInternalError(c)
}
