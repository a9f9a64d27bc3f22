// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/supplement-store-backend/internal/config"
	"github.com/your-org/supplement-store-backend/internal/domain/product"
	redisdb "github.com/your-org/supplement-store-backend/internal/infrastructure/database/redis"
	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

const (
	sessionCartTTL       = 7 * 24 * time.Hour
	sessionCartKeyFormat = "cart:session:%s"
)

var (
	ErrItemNotFound    = apperrors.NotFound("Cart item not found")
	ErrProductNotFound = apperrors.NotFound("Product not found")
	ErrSessionNotFound = apperrors.NotFound("Cart session not found")
	ErrInvalidQuantity = apperrors.BadRequest("Quantity must be at least 1")
	ErrInactiveProduct = apperrors.BadRequest("Product is not available")
)

// Service handles cart operations for authenticated users (database) and
// guests (Redis sessions)
type Service struct {
	db     *gorm.DB
	cache  *redisdb.Client
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cache *redisdb.Client, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		db:     db,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a quantity change. Zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// ItemResponse is a cart line with product details attached
type ItemResponse struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
}

// CartResponse represents a cart with its lines
type CartResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	UserID    *uint          `json:"user_id,omitempty"`
	Items     []ItemResponse `json:"items"`
	ItemCount int            `json:"item_count"`
}

// AddItem adds a product to the user's cart, summing quantities when the
// line already exists
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddItemRequest) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.checkProduct(ctx, req.ProductID); err != nil {
		return err
	}

	var item CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, req.ProductID).
		First(&item).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		item = CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up cart item: %w", err)
	default:
		item.Quantity += req.Quantity
		if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	return nil
}

// UpdateItem sets a line's quantity, removing the line when it drops to zero
func (s *Service) UpdateItem(ctx context.Context, userID, productID uint, quantity int) error {
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	result := s.db.WithContext(ctx).Model(&CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes one line from the user's cart
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ClearCart removes every line from the user's cart
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetCart returns the user's cart with product details
func (s *Service) GetCart(ctx context.Context, userID uint) (*CartResponse, error) {
	var items []CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	resp := &CartResponse{
		UserID: &userID,
		Items:  make([]ItemResponse, 0, len(items)),
	}
	for _, item := range items {
		line := ItemResponse{ProductID: item.ProductID, Quantity: item.Quantity}
		var p product.Product
		if err := s.db.WithContext(ctx).First(&p, item.ProductID).Error; err == nil {
			line.Product = &p
		}
		resp.Items = append(resp.Items, line)
	}
	resp.ItemCount = len(resp.Items)
	return resp, nil
}

// FindActiveLines returns the user's cart lines in insertion order for
// pricing
func (s *Service) FindActiveLines(ctx context.Context, userID uint) ([]Line, error) {
	var items []CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart lines: %w", err)
	}

	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines, nil
}

// Guest carts

// CreateSession starts a new guest cart and returns its session ID
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	sessionID := uuid.New().String()
	now := time.Now().UTC()
	sc := &SessionCart{
		SessionID: sessionID,
		Items:     []SessionCartItem{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(sessionCartTTL),
	}
	if err := s.saveSession(ctx, sc); err != nil {
		return "", err
	}
	return sessionID, nil
}

// GetSessionCart returns a guest cart by session ID
func (s *Service) GetSessionCart(ctx context.Context, sessionID string) (*SessionCart, error) {
	var sc SessionCart
	err := s.cache.GetJSON(ctx, fmt.Sprintf(sessionCartKeyFormat, sessionID), &sc)
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve session cart: %w", err)
	}
	return &sc, nil
}

// AddSessionItem adds a product to a guest cart, creating the session when
// it does not exist yet
func (s *Service) AddSessionItem(ctx context.Context, sessionID string, req *AddItemRequest) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.checkProduct(ctx, req.ProductID); err != nil {
		return err
	}

	sc, err := s.GetSessionCart(ctx, sessionID)
	if err == ErrSessionNotFound {
		now := time.Now().UTC()
		sc = &SessionCart{
			SessionID: sessionID,
			CreatedAt: now,
			ExpiresAt: now.Add(sessionCartTTL),
		}
	} else if err != nil {
		return err
	}

	found := false
	for i := range sc.Items {
		if sc.Items[i].ProductID == req.ProductID {
			sc.Items[i].Quantity += req.Quantity
			found = true
			break
		}
	}
	if !found {
		sc.Items = append(sc.Items, SessionCartItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			AddedAt:   time.Now().UTC(),
		})
	}

	return s.saveSession(ctx, sc)
}

// MergeSessionCart folds a guest cart into the user's cart after login and
// deletes the session. A missing session is a no-op.
func (s *Service) MergeSessionCart(ctx context.Context, sessionID string, userID uint) error {
	sc, err := s.GetSessionCart(ctx, sessionID)
	if err == ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	for _, item := range sc.Items {
		req := &AddItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
		if err := s.AddItem(ctx, userID, req); err != nil {
			// Skip lines whose product vanished while the guest browsed.
			if err == ErrProductNotFound || err == ErrInactiveProduct {
				s.logger.WithFields(logrus.Fields{
					"product_id": item.ProductID,
					"session_id": sessionID,
				}).Warn("Skipping unavailable product during cart merge")
				continue
			}
			return err
		}
	}

	if err := s.cache.Del(ctx, fmt.Sprintf(sessionCartKeyFormat, sessionID)); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).
			Warn("Failed to delete merged session cart")
	}
	return nil
}

func (s *Service) saveSession(ctx context.Context, sc *SessionCart) error {
	sc.UpdatedAt = time.Now().UTC()
	key := fmt.Sprintf(sessionCartKeyFormat, sc.SessionID)
	if err := s.cache.SetJSON(ctx, key, sc, sessionCartTTL); err != nil {
		return fmt.Errorf("failed to store session cart: %w", err)
	}
	return nil
}

func (s *Service) checkProduct(ctx context.Context, productID uint) error {
	var p product.Product
	err := s.db.WithContext(ctx).Select("id", "is_active").First(&p, productID).Error
	if err == gorm.ErrRecordNotFound {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up product: %w", err)
	}
	if !p.IsActive {
		return ErrInactiveProduct
	}
	return nil
}
