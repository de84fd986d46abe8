package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventView      = "view"
	EventClick     = "click"
	EventAddToCart = "add_to_cart"
	EventPurchase  = "purchase"
)

// InteractionEvent is append-only: the source of truth for the
// collaborative and trending signals. The core never mutates rows.
type InteractionEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	EventID   string            `gorm:"column:event_id;uniqueIndex" json:"event_id"`
	UserID    string            `gorm:"column:user_id;not null;index" json:"user_id"`
	ProductID string            `gorm:"column:product_id;not null;index" json:"product_id"`
	EventType string            `gorm:"column:event_type;not null" json:"event_type"`
	SessionID string            `gorm:"column:session_id" json:"session_id,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (InteractionEvent) TableName() string {
	return "interaction_events"
}

func ValidEventType(t string) bool {
	switch t {
	case EventView, EventClick, EventAddToCart, EventPurchase:
		return true
	}
	return false
}
