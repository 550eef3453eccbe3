package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (client_id, scope, key). It enables safe retries of order
// submission by returning the originally created order id without re-running
// side effects such as operator notification.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	ClientID  string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_client_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_client_scope_key,priority:2"`
	Key       string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_client_scope_key,priority:3"`
	OrderID   string    `gorm:"type:varchar(64);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
