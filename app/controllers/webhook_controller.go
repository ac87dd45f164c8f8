package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/subsync/subsync/app/models"
	"github.com/subsync/subsync/internal/pkg/billing"
	"github.com/subsync/subsync/internal/pkg/env"
)

const webhookTimeout = 25 * time.Second

// HandleBillingWebhook is the inbound notification boundary. Unrecognized
// kinds are acknowledged with 200 so the sender stops redelivering them;
// upstream failures and lock contention return 503 so the sender redelivers
// later and the resync gets retried for free.
func HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	secret := env.GetEnv("UPSTREAM_WEBHOOK_SECRET", "")
	signatureValid := true
	if secret != "" {
		signatureValid = billing.VerifyWebhookSignature(rawBody, c.Get("X-Upstream-Signature"), secret)
	}

	var n billing.Notification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	customerID, admitted := billing.Admit(n)
	recordCounter(addWebhookEvent(n.Type))

	repo := newRepo()
	event := &models.WebhookEvent{
		UpstreamEventID: n.ID,
		EventType:       n.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
		Admitted:        admitted,
	}
	if err := repo.CreateWebhookEvent(event); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}

	if !signatureValid {
		_ = repo.MarkWebhookProcessed(event.ID, "invalid webhook signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if !admitted {
		_ = repo.MarkWebhookProcessed(event.ID, "")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	engine := newEngine()
	_, syncErr := engine.Resync(ctx, customerID)
	if syncErr != nil {
		_ = repo.MarkWebhookProcessed(event.ID, syncErr.Error())
		recordCounter(addResyncOutcome(resyncOutcome(syncErr)))
		if errors.Is(syncErr, billing.ErrUpstreamUnavailable) ||
			errors.Is(syncErr, billing.ErrLockContention) ||
			errors.Is(syncErr, context.DeadlineExceeded) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "resync_retryable"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "resync_failed"})
	}

	_ = repo.MarkWebhookProcessed(event.ID, "")
	recordCounter(addResyncOutcome("ok"))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func resyncOutcome(err error) string {
	switch {
	case errors.Is(err, billing.ErrLockContention):
		return "contention"
	case errors.Is(err, billing.ErrUpstreamUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
