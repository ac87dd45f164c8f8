package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/subsync/subsync/internal/pkg/env"
)

const defaultUpstreamAPIBaseURL = "https://api.stripe.com"

// Upstream is the slice of the upstream billing API the engine depends on.
// The list call is authoritative but slow (3-10s typical) and rate limited;
// the engine makes at most one call per resync attempt.
type Upstream interface {
	CreateCustomer(ctx context.Context, email string, appUserID uint) (string, error)
	ListLatestSubscription(ctx context.Context, customerID string) (json.RawMessage, error)
}

// UpstreamClient talks to the upstream billing REST API.
type UpstreamClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewUpstreamClientFromEnv() *UpstreamClient {
	return &UpstreamClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("UPSTREAM_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("UPSTREAM_API_BASE_URL", defaultUpstreamAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCustomer creates the upstream customer for a local user. The local
// user id is embedded as queryable metadata so notifications that carry only
// the upstream customer id can be tied back to the user out of band.
func (c *UpstreamClient) CreateCustomer(ctx context.Context, email string, appUserID uint) (string, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return "", errors.New("UPSTREAM_SECRET_KEY is not configured")
	}

	form := url.Values{}
	form.Set("email", strings.TrimSpace(email))
	form.Set("metadata[app_user_id]", fmt.Sprintf("%d", appUserID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/customers", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := upstreamStatusError(resp.StatusCode, body); err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("upstream customer create returned empty id")
	}
	return out.ID, nil
}

// ListLatestSubscription fetches the single most recent subscription for a
// customer regardless of status, asking upstream to expand the default
// payment method inline so no second round trip is needed. The raw body is
// returned for the normalizer; this method does not interpret it.
func (c *UpstreamClient) ListLatestSubscription(ctx context.Context, customerID string) (json.RawMessage, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("UPSTREAM_SECRET_KEY is not configured")
	}
	cus := strings.TrimSpace(customerID)
	if cus == "" {
		return nil, errors.New("customer id is required")
	}

	u, err := url.Parse(c.APIBaseURL + "/v1/subscriptions")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("customer", cus)
	q.Set("limit", "1")
	q.Set("status", "all")
	q.Add("expand[]", "data.default_payment_method")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err := upstreamStatusError(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func upstreamStatusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("%w: status=%d body=%s", ErrUpstreamUnavailable, status, string(body))
	}
	return fmt.Errorf("upstream request failed: status=%d body=%s", status, string(body))
}
