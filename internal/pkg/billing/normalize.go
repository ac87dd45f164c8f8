package billing

import (
	"encoding/json"
	"strings"
)

// Normalize maps the raw upstream subscription list response into exactly one
// of the two canonical record shapes. Zero subscriptions means RecordNone.
// Optional nested fields degrade to nil when absent or malformed; partial
// upstream data must never block caching the fields that were present. Pure
// function, no I/O.
func Normalize(raw []byte) (*Record, error) {
	var list rawSubscriptionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	if len(list.Data) == 0 {
		return &Record{Kind: RecordNone}, nil
	}

	sub := list.Data[0]
	snap := &Snapshot{
		SubscriptionID:     nonEmptyPtr(sub.ID),
		Status:             strings.ToLower(strings.TrimSpace(sub.Status)),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		PaymentMethod:      normalizePaymentMethod(sub.DefaultPaymentMethod),
	}
	if snap.Status == "" {
		snap.Status = StatusIncomplete
	}
	if len(sub.Items.Data) > 0 {
		snap.PriceID = nonEmptyPtr(sub.Items.Data[0].Price.ID)
	}

	return &Record{Kind: RecordSubscription, Subscription: snap}, nil
}

type rawSubscriptionList struct {
	Data []rawSubscription `json:"data"`
}

type rawSubscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	CurrentPeriodStart *int64 `json:"current_period_start"`
	CurrentPeriodEnd   *int64 `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	// Either an opaque reference string or the expanded object, depending on
	// whether upstream honored the expand request.
	DefaultPaymentMethod json.RawMessage `json:"default_payment_method"`
}

// normalizePaymentMethod returns the card summary only when upstream sent
// the expanded object form; a bare reference string or anything unexpected
// yields nil.
func normalizePaymentMethod(raw json.RawMessage) *PaymentMethod {
	if len(raw) == 0 {
		return nil
	}
	var expanded struct {
		Card struct {
			Brand string `json:"brand"`
			Last4 string `json:"last4"`
		} `json:"card"`
	}
	if err := json.Unmarshal(raw, &expanded); err != nil {
		return nil
	}
	if expanded.Card.Brand == "" && expanded.Card.Last4 == "" {
		return nil
	}
	return &PaymentMethod{
		Brand: expanded.Card.Brand,
		Last4: expanded.Card.Last4,
	}
}

func nonEmptyPtr(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}
