package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/subsync/subsync/internal/pkg/metrics/counter"
)

// HandleBillingMetrics exposes the webhook and resync counters.
func HandleBillingMetrics(c *fiber.Ctx) error {
	webhooks, resyncs, err := counter.Snapshot(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"webhook_events":  webhooks,
		"resync_outcomes": resyncs,
	})
}
