package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rephrase-labs/rephrase_api/services"
)

// @title Rephrase API
// @version 1.0
// @description Multi-tenant paraphrasing service
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment")
	}

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.PostgresService{},
		&services.RedisService{},

		&services.JWTService{},
		&services.PasswordService{},
		&services.CaptchaService{},
		&services.RateLimitService{},
		&services.EntitlementService{},

		&services.AuthService{},
		&services.UserService{},
		&services.DocumentService{},
		&services.ParaphraseService{},
		&services.PaymentService{},
		&services.StorageService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Service runtime exited")
		return
	}
}
