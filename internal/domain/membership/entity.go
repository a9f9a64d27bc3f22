// internal/domain/membership/entity.go
package membership

import (
	"time"

	"gorm.io/gorm"
)

// Status represents the membership lifecycle state
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Membership represents a user's loyalty membership
type Membership struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	Status    Status         `gorm:"not null;size:20;default:'active'" json:"status"`
	StartedAt time.Time      `json:"started_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Membership) TableName() string {
	return "memberships"
}

// IsCurrent reports whether the membership grants member pricing right now
func (m *Membership) IsCurrent() bool {
	if m.Status != StatusActive {
		return false
	}
	if m.ExpiresAt != nil && m.ExpiresAt.Before(time.Now().UTC()) {
		return false
	}
	return true
}
