package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/subsync/subsync/internal/pkg/billing"
	"github.com/subsync/subsync/internal/pkg/database"
	"github.com/subsync/subsync/internal/pkg/metrics/counter"
)

type resyncer interface {
	Resync(ctx context.Context, customerID string) (*billing.Record, error)
}

type customerMapper interface {
	EnsureCustomer(ctx context.Context, userID uint, email string) (string, error)
	LookupCustomer(userID uint) (string, error)
}

// Indirection points so handler tests can swap in fakes without Redis, MySQL
// or an upstream endpoint.
var (
	newEngine        = func() resyncer { return billing.NewEngineFromEnv() }
	newStore         = billing.NewRecordStore
	newMapper        = func() customerMapper { return billing.NewMapperFromDB(database.GetDB()) }
	newRepo          = func() billing.Repository { return billing.NewRepository(database.GetDB()) }
	addWebhookEvent  = counter.AddWebhookEvent
	addResyncOutcome = counter.AddResyncOutcome
)

// Counter writes are best effort; a cache hiccup must not fail the request.
func recordCounter(err error) {
	if err != nil {
		log.Debugf("[Metrics] Counter update failed: %v", err)
	}
}
