package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/subsync/subsync/internal/pkg/billing"
	"github.com/subsync/subsync/internal/pkg/middleware"
)

const resyncTimeout = 25 * time.Second

var validate = validator.New()

type checkoutRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleCheckoutStart lazily creates the upstream customer for the current
// user and returns its id. The checkout session itself is created elsewhere;
// this endpoint only guarantees the identity binding exists first.
func HandleCheckoutStart(c *fiber.Ctx) error {
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_email"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	mapper := newMapper()
	customerID, err := mapper.EnsureCustomer(ctx, userID, req.Email)
	if err != nil {
		if errors.Is(err, billing.ErrUpstreamUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "upstream_unavailable"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_init_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"customer_id": customerID})
}

// HandleBillingReturn is the user-redirect boundary, hit when the user comes
// back from a checkout. No identity binding means no checkout ever started
// for this user: the handler answers without touching upstream or the cache.
// When the fresh resync fails the last-known cached record is served instead
// of blocking the user.
func HandleBillingReturn(c *fiber.Ctx) error {
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	mapper := newMapper()
	customerID, err := mapper.LookupCustomer(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if customerID == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "no_checkout"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	rec, err := newEngine().Resync(ctx, customerID)
	if err != nil {
		// Serve the last successful snapshot; the next trigger corrects it.
		stale, staleErr := newStore().GetRecord(ctx, customerID)
		if staleErr != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "state_unavailable"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "stale", "record": stale})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok", "record": rec})
}

// HandleBillingState is the application-facing read path. It only ever reads
// the cache and never blocks on upstream.
func HandleBillingState(c *fiber.Ctx) error {
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	mapper := newMapper()
	customerID, err := mapper.LookupCustomer(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if customerID == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "no_checkout"})
	}

	rec, err := newStore().GetRecord(c.Context(), customerID)
	if err != nil {
		if errors.Is(err, billing.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_synced"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "state_read_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok", "record": rec})
}
