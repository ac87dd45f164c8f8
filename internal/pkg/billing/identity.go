package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/subsync/subsync/app/models"
)

// Mapper maintains the durable localUserId -> upstreamCustomerId binding,
// created lazily and exactly once per local user.
type Mapper struct {
	repo     Repository
	upstream Upstream
}

// NewMapper creates an identity mapper from an injected repository and
// upstream client.
func NewMapper(repo Repository, upstream Upstream) *Mapper {
	return &Mapper{repo: repo, upstream: upstream}
}

// NewMapperFromDB creates an identity mapper from a GORM DB handle using the
// env-configured upstream client.
func NewMapperFromDB(db *gorm.DB) *Mapper {
	return NewMapper(NewRepository(db), NewUpstreamClientFromEnv())
}

// EnsureCustomer returns the upstream customer id bound to userID, creating
// the upstream customer and the binding on first use. Idempotent: an
// existing binding is returned unchanged without an upstream call. On any
// failure nothing is written, so the caller can retry the whole operation.
func (m *Mapper) EnsureCustomer(ctx context.Context, userID uint, email string) (string, error) {
	if userID == 0 {
		return "", errors.New("user id is required")
	}

	link, err := m.repo.GetCustomerLinkByUserID(userID)
	if err == nil {
		return link.UpstreamCustomerID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	customerID, err := m.upstream.CreateCustomer(ctx, email, userID)
	if err != nil {
		return "", fmt.Errorf("create upstream customer for user %d: %w", userID, err)
	}

	if err := m.repo.CreateCustomerLink(&models.CustomerLink{
		UserID:             userID,
		UpstreamCustomerID: customerID,
		Email:              strings.TrimSpace(email),
	}); err != nil {
		return "", fmt.Errorf("persist customer link for user %d: %w", userID, err)
	}
	return customerID, nil
}

// LookupCustomer returns the bound upstream customer id or "" when the user
// never started a checkout. Never calls upstream.
func (m *Mapper) LookupCustomer(userID uint) (string, error) {
	link, err := m.repo.GetCustomerLinkByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return link.UpstreamCustomerID, nil
}
