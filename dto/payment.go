package dto

type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=basic pro" example:"basic"`
}

func (c CheckoutRequest) Validate() error {
	return GetValidator().Struct(c)
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url" example:"https://checkout.stripe.com/c/pay/cs_test_..."`
	SessionID   string `json:"session_id" example:"cs_test_a1b2c3"`
}

type PaymentIntentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0" example:"999"`
	Currency string `json:"currency" validate:"required,iso4217" example:"USD"`
	OrderID  string `json:"order_id" validate:"required" example:"order_8741"`
	Email    string `json:"email" validate:"omitempty,email" example:"user@example.com"`
}

func (p PaymentIntentRequest) Validate() error {
	return GetValidator().Struct(p)
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret" example:"pi_3Nx..._secret_..."`
}

type WebhookResponse struct {
	Status string `json:"status" example:"upgraded"`
}
