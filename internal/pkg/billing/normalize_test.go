package billing

import (
	"testing"
)

func TestNormalize_EmptyListMeansNoSubscription(t *testing.T) {
	rec, err := Normalize([]byte(`{"data": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Kind != RecordNone {
		t.Fatalf("expected kind %q, got %q", RecordNone, rec.Kind)
	}
	if rec.Subscription != nil {
		t.Fatalf("expected no snapshot for empty list")
	}
}

func TestNormalize_FullSubscription(t *testing.T) {
	raw := []byte(`{
		"data": [{
			"id": "sub_123",
			"status": "Active",
			"items": {"data": [{"price": {"id": "price_basic"}}]},
			"current_period_start": 1700000000,
			"current_period_end": 1702592000,
			"cancel_at_period_end": true,
			"default_payment_method": {"id": "pm_1", "card": {"brand": "visa", "last4": "4242"}}
		}]
	}`)

	rec, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Kind != RecordSubscription {
		t.Fatalf("expected kind %q, got %q", RecordSubscription, rec.Kind)
	}
	snap := rec.Subscription
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.SubscriptionID == nil || *snap.SubscriptionID != "sub_123" {
		t.Fatalf("unexpected subscription id: %v", snap.SubscriptionID)
	}
	if snap.Status != StatusActive {
		t.Fatalf("expected status %q, got %q", StatusActive, snap.Status)
	}
	if snap.PriceID == nil || *snap.PriceID != "price_basic" {
		t.Fatalf("unexpected price id: %v", snap.PriceID)
	}
	if snap.CurrentPeriodStart == nil || *snap.CurrentPeriodStart != 1700000000 {
		t.Fatalf("unexpected period start: %v", snap.CurrentPeriodStart)
	}
	if snap.CurrentPeriodEnd == nil || *snap.CurrentPeriodEnd != 1702592000 {
		t.Fatalf("unexpected period end: %v", snap.CurrentPeriodEnd)
	}
	if !snap.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end to carry through")
	}
	if snap.PaymentMethod == nil || snap.PaymentMethod.Brand != "visa" || snap.PaymentMethod.Last4 != "4242" {
		t.Fatalf("unexpected payment method: %+v", snap.PaymentMethod)
	}
}

func TestNormalize_MissingOptionalFieldsDegradeToNil(t *testing.T) {
	raw := []byte(`{
		"data": [{
			"id": "sub_123",
			"status": "past_due"
		}]
	}`)

	rec, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := rec.Subscription
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.Status != StatusPastDue {
		t.Fatalf("expected status %q, got %q", StatusPastDue, snap.Status)
	}
	if snap.PriceID != nil || snap.CurrentPeriodStart != nil || snap.CurrentPeriodEnd != nil {
		t.Fatalf("expected missing optional fields to be nil: %+v", snap)
	}
	if snap.PaymentMethod != nil {
		t.Fatalf("expected nil payment method, got %+v", snap.PaymentMethod)
	}
}

func TestNormalize_PaymentMethodReferenceStringIsNil(t *testing.T) {
	raw := []byte(`{
		"data": [{
			"id": "sub_123",
			"status": "active",
			"default_payment_method": "pm_1"
		}]
	}`)

	rec, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Subscription.PaymentMethod != nil {
		t.Fatalf("expected unexpanded payment method reference to normalize to nil, got %+v", rec.Subscription.PaymentMethod)
	}
}

func TestNormalize_EmptyStatusDegradesToIncomplete(t *testing.T) {
	rec, err := Normalize([]byte(`{"data": [{"id": "sub_123"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Subscription.Status != StatusIncomplete {
		t.Fatalf("expected status %q, got %q", StatusIncomplete, rec.Subscription.Status)
	}
}

func TestNormalize_InvalidJSON(t *testing.T) {
	if _, err := Normalize([]byte(`{`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
