package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/anetioficial/comunidade/internal/core/services"
	"github.com/anetioficial/comunidade/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment gateway webhooks
type PaymentHandler struct {
	registrationService *services.RegistrationService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(registrationService *services.RegistrationService) *PaymentHandler {
	return &PaymentHandler{registrationService: registrationService}
}

// webhookBody is the JSON shape Mercado Pago posts
type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Webhook receives Mercado Pago payment notifications. It always answers
// 200 immediately and processes in the background: the gateway retries on
// non-200, and the reconciliation sweep covers anything lost here. The
// payload is never trusted; the payment is re-fetched by id.
// @Summary Payment webhook
// @Description Receive Mercado Pago payment notifications
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /payments/webhook/mercadopago [post]
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	notificationType := c.Query("type", c.Query("topic"))
	paymentIDRaw := c.Query("data.id", c.Query("id"))

	if notificationType == "" || paymentIDRaw == "" {
		var body webhookBody
		if err := c.BodyParser(&body); err == nil {
			if notificationType == "" {
				notificationType = body.Type
			}
			if paymentIDRaw == "" {
				paymentIDRaw = body.Data.ID
			}
		}
	}

	if notificationType != "payment" {
		return response.Success(c, "Notification ignored", nil)
	}

	paymentID, err := strconv.Atoi(paymentIDRaw)
	if err != nil {
		log.Printf("⚠️ Webhook with invalid payment id %q, ignoring", paymentIDRaw)
		return response.Success(c, "Notification ignored", nil)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := h.registrationService.ProcessPaymentNotification(ctx, paymentID); err != nil {
			log.Printf("❌ Failed to process payment notification %d: %v", paymentID, err)
		}
	}()

	return response.Success(c, "Notification received", nil)
}
