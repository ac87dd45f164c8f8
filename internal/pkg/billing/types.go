package billing

import "errors"

// Subscription lifecycle states as reported by the upstream billing service.
const (
	StatusActive     = "active"
	StatusTrialing   = "trialing"
	StatusPastDue    = "past_due"
	StatusCanceled   = "canceled"
	StatusIncomplete = "incomplete"
	StatusPaused     = "paused"
	StatusExpired    = "expired"
)

// RecordKind tags the two canonical cache record shapes.
type RecordKind string

const (
	// RecordNone means the customer exists upstream but holds no
	// subscription of interest.
	RecordNone RecordKind = "none"
	// RecordSubscription means a subscription snapshot is present.
	RecordSubscription RecordKind = "subscription"
)

// PaymentMethod is the card summary attached to a subscription, present only
// when upstream returned the default payment method in expanded form.
type PaymentMethod struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// Snapshot is the normalized view of the customer's most recent upstream
// subscription. All optional upstream fields degrade to nil instead of
// failing normalization.
type Snapshot struct {
	SubscriptionID     *string        `json:"subscription_id"`
	Status             string         `json:"status"`
	PriceID            *string        `json:"price_id"`
	CurrentPeriodStart *int64         `json:"current_period_start"`
	CurrentPeriodEnd   *int64         `json:"current_period_end"`
	CancelAtPeriodEnd  bool           `json:"cancel_at_period_end"`
	PaymentMethod      *PaymentMethod `json:"payment_method"`
}

// Record is the cached snapshot of one upstream customer's subscription
// state. It is always written as a whole by a single resync, never patched,
// so readers can never observe a hybrid of two upstream reads.
type Record struct {
	Kind         RecordKind `json:"kind"`
	Subscription *Snapshot  `json:"subscription,omitempty"`
}

var (
	// ErrUpstreamUnavailable covers network failures, timeouts, rate
	// limiting and 5xx responses from the upstream billing service.
	ErrUpstreamUnavailable = errors.New("billing: upstream unavailable")

	// ErrLockBusy is returned by a Locker when the lease is already held.
	ErrLockBusy = errors.New("billing: lock busy")

	// ErrLockContention means another resync holds the per-customer lease
	// and it did not free up within the wait window.
	ErrLockContention = errors.New("billing: resync lock contention")

	// ErrRecordNotFound is returned by record stores for customers that
	// were never resynced.
	ErrRecordNotFound = errors.New("billing: record not found")
)
