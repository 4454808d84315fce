package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

type PaymentHandler struct {
	paymentSvc PaymentServiceInterface
}

func NewPaymentHandler(paymentSvc PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{
		paymentSvc: paymentSvc,
	}
}

// @Summary Create checkout session
// @Description Start a hosted checkout session for a paid plan upgrade
// @Tags payment
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param checkoutRequest body dto.CheckoutRequest true "Target plan"
// @Success 200 {object} shared.Response{data=dto.CheckoutResponse}
// @Router /api/v1/payments/checkout [post]
func (h *PaymentHandler) CreateCheckout(c *fiber.Ctx) error {
	user, ok := c.Locals(shared.Principal).(*model.User)
	if !ok {
		return shared.ErrTokenInvalid("")
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrBadRequest("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.paymentSvc.CreateCheckoutSession(user, req.Plan)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Create payment intent
// @Description Create a one-off payment intent and return its client secret
// @Tags payment
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param intentRequest body dto.PaymentIntentRequest true "Amount and currency"
// @Success 200 {object} shared.Response{data=dto.PaymentIntentResponse}
// @Router /api/v1/payments/create [post]
func (h *PaymentHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	var req dto.PaymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrBadRequest("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.paymentSvc.CreatePaymentIntent(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Payment provider webhook
// @Description Receive signed payment events and update subscription state
// @Tags payment
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} shared.Response{data=dto.WebhookResponse}
// @Router /api/v1/webhooks/payment [post]
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return shared.ErrBadRequest("Missing webhook signature")
	}

	resp, err := h.paymentSvc.HandleWebhook(c, c.Body(), signature)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
