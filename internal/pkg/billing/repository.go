package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subsync/subsync/app/models"
)

// Repository provides DB operations used by the billing package.
type Repository interface {
	GetCustomerLinkByUserID(userID uint) (*models.CustomerLink, error)
	CreateCustomerLink(link *models.CustomerLink) error
	CreateWebhookEvent(event *models.WebhookEvent) error
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCustomerLinkByUserID(userID uint) (*models.CustomerLink, error) {
	var link models.CustomerLink
	if err := r.db.Where("user_id = ?", userID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateCustomerLink writes the user->customer binding as a single atomic
// set. Two racing creators for the same user collapse onto one row; last
// writer wins, which is acceptable because both freshly created upstream
// customers are equivalent empty accounts.
func (r *gormRepository) CreateCustomerLink(link *models.CustomerLink) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"upstream_customer_id",
			"email",
			"updated_at",
		}),
	}).Create(link).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ?", link.UserID).First(link).Error
}

func (r *gormRepository) CreateWebhookEvent(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
