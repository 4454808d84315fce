package dto

import "time"

type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email" example:"user@example.com"`
	Username     string `json:"username" validate:"required,min=3,max=30,alphanum" example:"johndoe"`
	Password     string `json:"password" validate:"required,strong_password" example:"correct horse 42"`
	Phone        string `json:"phone" validate:"omitempty,e164" example:"+14155552671"`
	CaptchaToken string `json:"captcha_token" validate:"omitempty" example:"03AGdBq25..."`
}

func (r RegisterRequest) Validate() error {
	return GetValidator().Struct(r)
}

type RegisterResponse struct {
	UserID  string `json:"user_id" example:"0190cafe-babe-7abc-8def-0123456789ab"`
	Message string `json:"message" example:"User account successfully created"`
}

type LoginRequest struct {
	Email        string `json:"email" validate:"required,email" example:"user@example.com"`
	Password     string `json:"password" validate:"required" example:"correct horse 42"`
	CaptchaToken string `json:"captcha_token" validate:"omitempty" example:"03AGdBq25..."`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type LoginResponse struct {
	AccessToken string   `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int64    `json:"expires_in" example:"86400"`
	User        UserInfo `json:"user"`
}

type TokenPair struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int64  `json:"expires_in" example:"86400"`
}

type UserInfo struct {
	ID                 string    `json:"id" example:"0190cafe-babe-7abc-8def-0123456789ab"`
	Username           string    `json:"username" example:"johndoe"`
	Email              string    `json:"email" example:"user@example.com"`
	Role               string    `json:"role" example:"user"`
	EmailVerified      bool      `json:"email_verified" example:"true"`
	Plan               string    `json:"plan" example:"basic"`
	SubscriptionStatus string    `json:"subscription_status" example:"active"`
	CreatedAt          time.Time `json:"created_at" example:"2025-01-01T00:00:00Z"`
}

type UserProfileResponse struct {
	UserInfo
	MonthlyCharactersUsed int64 `json:"monthly_characters_used" example:"1250"`
	PlanCharacterLimit    int64 `json:"plan_character_limit" example:"100000"`
	CharactersRemaining   int64 `json:"characters_remaining" example:"98750"`
}
