package billing

import (
	"encoding/json"
	"strings"
)

// Notification is the verified inbound event envelope. Payload carries the
// kind-specific object untouched; admission only ever looks at its customer
// field.
type Notification struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// admittedEventTypes is the fixed allow-list of notification kinds that can
// change subscription or payment state. Everything else is ignored without
// touching the rate-limited upstream.
var admittedEventTypes = map[string]struct{}{
	"checkout.session.completed":    {},
	"customer.subscription.created": {},
	"customer.subscription.updated": {},
	"customer.subscription.deleted": {},
	"invoice.paid":                  {},
	"invoice.payment_failed":        {},
	"payment_intent.succeeded":      {},
	"payment_intent.payment_failed": {},
}

// Admit decides whether a notification should trigger a resync and extracts
// the upstream customer id to reconcile. Returns ok=false for unrecognized
// kinds and for recognized kinds whose payload has no usable customer field
// (malformed notifications are dropped, never an error). Stateless and free
// of I/O; duplicates are not tracked here because resync is idempotent.
func Admit(n Notification) (string, bool) {
	kind := strings.TrimSpace(n.Type)
	if _, ok := admittedEventTypes[kind]; !ok {
		return "", false
	}

	var obj struct {
		Customer json.RawMessage `json:"customer"`
	}
	if err := json.Unmarshal(n.Data.Object, &obj); err != nil {
		return "", false
	}

	var customerID string
	if err := json.Unmarshal(obj.Customer, &customerID); err != nil {
		return "", false
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return "", false
	}
	return customerID, true
}
