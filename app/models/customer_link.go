package models

import "time"

// CustomerLink binds a local user to the upstream billing customer created
// for them. The binding is created once at the first checkout attempt and is
// never mutated afterwards; the unique index on user_id makes concurrent
// creation attempts collapse to a single row (last writer wins).
type CustomerLink struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index:ux_customer_links_user,unique" json:"user_id"`
	UpstreamCustomerID string    `gorm:"type:varchar(191);not null;index:idx_customer_links_customer" json:"upstream_customer_id"`
	Email              string    `gorm:"type:varchar(200);default:''" json:"email"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
