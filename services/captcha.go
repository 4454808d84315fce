package services

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/shared"
)

// CaptchaService verifies reCAPTCHA v3 tokens on registration and login.
// When no secret is configured the service is disabled and every check
// passes, which keeps local development and tests friction-free.
type CaptchaService struct {
	context.DefaultService

	httpClient *http.Client
	verifyURL  string
	secret     string
	minScore   float64
}

const CAPTCHA_SVC = "captcha_svc"

func (svc CaptchaService) Id() string {
	return CAPTCHA_SVC
}

func (svc *CaptchaService) Configure(ctx *context.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 5 * time.Second,
	}
	svc.verifyURL = "https://www.google.com/recaptcha/api/siteverify"
	svc.secret = os.Getenv("RECAPTCHA_SECRET")
	svc.minScore = 0.5
	return svc.DefaultService.Configure(ctx)
}

func (svc *CaptchaService) Start() error {
	if svc.secret == "" {
		log.Warn("RECAPTCHA_SECRET not set, captcha verification disabled")
	}
	return nil
}

func (svc *CaptchaService) Enabled() bool {
	return svc.secret != ""
}

// Verify checks the token against the provider for the expected action.
// Provider outage surfaces as UpstreamUnavailable, never as a generic fault.
func (svc *CaptchaService) Verify(token, expectedAction string) error {
	if !svc.Enabled() {
		return nil
	}

	if token == "" {
		return shared.ErrForbidden("Captcha verification failed")
	}

	resp, err := svc.httpClient.PostForm(svc.verifyURL, url.Values{
		"secret":   {svc.secret},
		"response": {token},
	})
	if err != nil {
		log.WithError(err).Error("Captcha provider request failed")
		return shared.ErrUpstreamUnavailable("Captcha verification service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Error("Captcha provider returned non-200 status")
		return shared.ErrUpstreamUnavailable("Captcha verification service")
	}

	var result struct {
		Success bool    `json:"success"`
		Action  string  `json:"action"`
		Score   float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return shared.ErrUpstreamUnavailable("Captcha verification service")
	}

	if !result.Success {
		return shared.ErrForbidden("Captcha verification failed")
	}
	if result.Action != expectedAction {
		return shared.ErrBadRequest("Invalid captcha action")
	}
	if result.Score < svc.minScore {
		return shared.ErrForbidden("Captcha verification failed")
	}

	return nil
}
