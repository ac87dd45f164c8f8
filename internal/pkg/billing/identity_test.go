package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subsync/subsync/app/models"
)

type memRepository struct {
	links     map[uint]*models.CustomerLink
	createErr error
}

func newMemRepository() *memRepository {
	return &memRepository{links: make(map[uint]*models.CustomerLink)}
}

func (r *memRepository) GetCustomerLinkByUserID(userID uint) (*models.CustomerLink, error) {
	link, ok := r.links[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return link, nil
}

func (r *memRepository) CreateCustomerLink(link *models.CustomerLink) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.links[link.UserID] = link
	return nil
}

func (r *memRepository) CreateWebhookEvent(event *models.WebhookEvent) error { return nil }

func (r *memRepository) MarkWebhookProcessed(id uint, processingError string) error { return nil }

func TestEnsureCustomer_CreatesOnce(t *testing.T) {
	repo := newMemRepository()
	up := &fakeUpstream{createID: "cus_new"}
	m := NewMapper(repo, up)

	first, err := m.EnsureCustomer(context.Background(), 7, "user@example.com")
	require.NoError(t, err)
	second, err := m.EnsureCustomer(context.Background(), 7, "user@example.com")
	require.NoError(t, err)

	assert.Equal(t, "cus_new", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, up.createCalls, "second call must reuse the existing binding")
}

func TestEnsureCustomer_UpstreamFailureWritesNothing(t *testing.T) {
	repo := newMemRepository()
	up := &fakeUpstream{createErr: ErrUpstreamUnavailable}
	m := NewMapper(repo, up)

	_, err := m.EnsureCustomer(context.Background(), 7, "user@example.com")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, repo.links)
}

func TestEnsureCustomer_PersistFailureWritesNothing(t *testing.T) {
	repo := newMemRepository()
	repo.createErr = errors.New("db down")
	up := &fakeUpstream{createID: "cus_new"}
	m := NewMapper(repo, up)

	_, err := m.EnsureCustomer(context.Background(), 7, "user@example.com")
	assert.Error(t, err)
	assert.Empty(t, repo.links)

	// A later retry of the whole operation succeeds.
	repo.createErr = nil
	id, err := m.EnsureCustomer(context.Background(), 7, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", id)
}

func TestEnsureCustomer_RequiresUserID(t *testing.T) {
	m := NewMapper(newMemRepository(), &fakeUpstream{})
	_, err := m.EnsureCustomer(context.Background(), 0, "user@example.com")
	assert.Error(t, err)
}

func TestLookupCustomer_NoBinding(t *testing.T) {
	m := NewMapper(newMemRepository(), &fakeUpstream{})
	id, err := m.LookupCustomer(42)
	require.NoError(t, err)
	assert.Empty(t, id)
}
