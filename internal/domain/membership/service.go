// internal/domain/membership/service.go
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/supplement-store-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles membership status lookups and administration
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new membership service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// IsMember reports whether the user currently holds an active membership
func (s *Service) IsMember(ctx context.Context, userID uint) (bool, error) {
	var m Membership
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up membership: %w", err)
	}
	return m.IsCurrent(), nil
}

// GetMembership returns the user's membership record, if any
func (s *Service) GetMembership(ctx context.Context, userID uint) (*Membership, error) {
	var m Membership
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve membership: %w", err)
	}
	return &m, nil
}

// Grant activates (or re-activates) a membership for the user
func (s *Service) Grant(ctx context.Context, userID uint, expiresAt *time.Time) (*Membership, error) {
	now := time.Now().UTC()

	var m Membership
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		m = Membership{
			UserID:    userID,
			Status:    StatusActive,
			StartedAt: now,
			ExpiresAt: expiresAt,
		}
		if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
			return nil, fmt.Errorf("failed to create membership: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	default:
		m.Status = StatusActive
		m.StartedAt = now
		m.ExpiresAt = expiresAt
		if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
			return nil, fmt.Errorf("failed to update membership: %w", err)
		}
	}

	return &m, nil
}

// Revoke cancels the user's membership
func (s *Service) Revoke(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).Model(&Membership{}).
		Where("user_id = ?", userID).
		Update("status", StatusCancelled)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke membership: %w", result.Error)
	}
	return nil
}
