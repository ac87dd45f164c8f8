package models

import "time"

// WebhookEvent stores upstream notification payloads for auditing. The
// reconciliation path never consults this table; duplicate deliveries are
// harmless because resync re-reads upstream truth instead of replaying
// payload content.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UpstreamEventID string     `gorm:"type:varchar(191);not null;default:'';index" json:"upstream_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	Admitted        bool       `gorm:"default:false" json:"admitted"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
