package services

import (
	"errors"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// AuthService owns registration, login and the request-authorization chain.
//
// Every protected request runs the same ordered pipeline:
// rate limit -> token verification -> identity resolution -> account-state
// guards -> entitlement -> handler. Each stage either enriches the request
// context or short-circuits with a typed failure; no stage may run out of
// order and none swallows a failure from the stage before it.
type AuthService struct {
	context.DefaultService

	sqlSvc      *PostgresService
	jwtSvc      *JWTService
	passwordSvc *PasswordService
	captchaSvc  *CaptchaService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	svc.passwordSvc = ctx.Service(PASSWORD_SVC).(*PasswordService)
	svc.captchaSvc = ctx.Service(CAPTCHA_SVC).(*CaptchaService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	return nil
}

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := svc.captchaSvc.Verify(req.CaptchaToken, "register"); err != nil {
		return nil, err
	}

	hashed, err := svc.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:                 id.String(),
		Email:              req.Email,
		Username:           req.Username,
		Password:           hashed,
		Phone:              req.Phone,
		Role:               shared.RoleUser,
		Plan:               shared.PlanFree,
		SubscriptionStatus: shared.SubscriptionInactive,
		UsageReset:         now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := svc.sqlSvc.CreateUser(user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Message: "User account successfully created",
	}, nil
}

// Login authenticates by email and password. When the email is unknown a
// dummy verification still runs so unknown-email and wrong-password are
// statistically indistinguishable to a timing observer. Both collapse to the
// same uniform failure.
func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := svc.captchaSvc.Verify(req.CaptchaToken, "login"); err != nil {
		return nil, err
	}

	user, err := svc.sqlSvc.GetUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		svc.passwordSvc.VerifyDummy(req.Password)
		return nil, shared.NewAppError(fiber.StatusUnauthorized, shared.CodeTokenInvalid, "Invalid credentials")
	}

	if !svc.passwordSvc.Verify(req.Password, user.Password) {
		return nil, shared.NewAppError(fiber.StatusUnauthorized, shared.CodeTokenInvalid, "Invalid credentials")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	if err := svc.sqlSvc.SetLastLogin(user.ID, time.Now()); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return &dto.LoginResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
		User:        toUserInfo(user),
	}, nil
}

// RequiredAuth verifies the bearer token and resolves the principal with
// exactly one storage lookup. Verification failures map to TokenInvalid;
// a valid token whose account is gone maps to AccountNotFound so clients can
// tell the two apart. A syntactically odd subject id and a genuine miss are
// deliberately indistinguishable.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ErrTokenInvalid(err.Error())
		}

		userID, err := svc.jwtSvc.VerifyAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				return shared.ErrTokenInvalid("Token has expired")
			default:
				return shared.ErrTokenInvalid("Invalid token")
			}
		}

		user, err := svc.sqlSvc.GetUserByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return shared.ErrAccountNotFound()
		}

		c.Locals(shared.UserID, user.ID)
		c.Locals(shared.Principal, user)
		return c.Next()
	}
}

// OptionalAuth resolves the principal when a bearer token is presented but
// lets anonymous requests through untouched. A presented-but-invalid token is
// still rejected; silently ignoring it would mask client bugs.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	required := svc.RequiredAuth()
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		return required(c)
	}
}

// RequireVerified and RequireActiveSubscription wrap the pure guards so the
// chain ordering is spelled out at route registration.
func (svc *AuthService) RequireVerified() fiber.Handler {
	return svc.guardHandler(VerifiedGuard)
}

func (svc *AuthService) RequireActiveSubscription() fiber.Handler {
	return svc.guardHandler(ActiveSubscriptionGuard)
}

func (svc *AuthService) guardHandler(guard PrincipalGuard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := PrincipalFromCtx(c)
		if user == nil {
			return shared.ErrTokenInvalid("")
		}
		if err := guard(user); err != nil {
			return err
		}
		return c.Next()
	}
}

func (svc *AuthService) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := PrincipalFromCtx(c)
		if user == nil {
			return shared.ErrTokenInvalid("")
		}
		if user.Role != role {
			return shared.ErrForbidden("Insufficient permissions")
		}
		return c.Next()
	}
}

// PrincipalFromCtx returns the resolved principal placed by RequiredAuth.
func PrincipalFromCtx(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(shared.Principal).(*model.User)
	return user
}

func toUserInfo(user *model.User) dto.UserInfo {
	return dto.UserInfo{
		ID:                 user.ID,
		Username:           user.Username,
		Email:              user.Email,
		Role:               user.Role,
		EmailVerified:      user.EmailVerified,
		Plan:               user.Plan,
		SubscriptionStatus: user.SubscriptionStatus,
		CreatedAt:          user.CreatedAt,
	}
}
