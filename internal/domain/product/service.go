// internal/domain/product/service.go
package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/supplement-store-backend/internal/config"
	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
	"github.com/your-org/supplement-store-backend/internal/pkg/translation"
	"gorm.io/gorm"
)

// Service handles product business logic
type Service struct {
	db           *gorm.DB
	config       *config.Config
	translations *translation.Cache
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config, translations *translation.Cache) *Service {
	return &Service{
		db:           db,
		config:       cfg,
		translations: translations,
	}
}

// ErrProductNotFound is returned when a product does not resolve to an
// active, non-deleted catalog entry.
var ErrProductNotFound = apperrors.NotFound("Product not found")

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int          `form:"page,default=1"`
	Limit      int          `form:"limit,default=20"`
	CategoryID uint         `form:"category_id"`
	Variant    SalesVariant `form:"variant"`
	Search     string       `form:"search"`
	SortBy     string       `form:"sort_by,default=created_at"`
	SortOrder  string       `form:"sort_order,default=desc"`
	IsActive   *bool        `form:"is_active"`
}

// ProductListResponse represents a paginated product list
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// ProductResponse is a product with its enumerated purchase plans
type ProductResponse struct {
	Product Product        `json:"product"`
	Plans   []PurchasePlan `json:"plans"`
}

// TierInput carries tier rows on create/update requests
type TierInput struct {
	CapsuleCount     int      `json:"capsule_count"`
	DurationDays     int      `json:"duration_days"`
	Amount           float64  `json:"amount" binding:"required,gt=0"`
	DiscountedAmount *float64 `json:"discounted_amount"`
	SavingsPercent   *float64 `json:"savings_percent"`
	Features         string   `json:"features"`
	Icon             string   `json:"icon"`
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	SKU                   string       `json:"sku" binding:"required"`
	Name                  string       `json:"name" binding:"required"`
	Slug                  string       `json:"slug" binding:"required"`
	Description           string       `json:"description"`
	Benefits              string       `json:"benefits"`
	CategoryID            uint         `json:"category_id" binding:"required"`
	Variant               SalesVariant `json:"variant" binding:"required,oneof=sachet stand_up_pouch"`
	MemberPrice           *float64     `json:"member_price"`
	MemberDiscountPercent *float64     `json:"member_discount_percent"`
	IsActive              bool         `json:"is_active"`
	OneTimeTiers          []TierInput  `json:"one_time_tiers"`
	SubscriptionTiers     []TierInput  `json:"subscription_tiers"`
}

// GetProducts retrieves a filtered, paginated product list
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Preload("OneTimeTiers").
		Preload("SubscriptionTiers")

	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Variant != "" {
		query = query.Where("variant = ?", req.Variant)
	}
	if req.Search != "" {
		pattern := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	} else {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	sortBy := req.SortBy
	switch sortBy {
	case "name", "created_at", "updated_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(req.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	var products []Product
	err := query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ProductResponse{
			Product: products[i],
			Plans:   EnumeratePlans(BuildPriceCatalog(&products[i])),
		}
	}

	return &ProductListResponse{
		Products: responses,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// GetProduct retrieves a single product with its purchase plans. When lang
// is set, name and description are localized through the translation cache,
// falling back to the original text on any cache failure.
func (s *Service) GetProduct(ctx context.Context, id uint, lang string) (*ProductResponse, error) {
	var prod Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("OneTimeTiers").
		Preload("SubscriptionTiers").
		Where("id = ? AND is_active = ?", id, true).
		First(&prod).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	s.localize(ctx, &prod, lang)

	return &ProductResponse{
		Product: prod,
		Plans:   EnumeratePlans(BuildPriceCatalog(&prod)),
	}, nil
}

// GetPriceCatalogs reads the normalized pricing documents for the given
// products. Only active, non-deleted products resolve; missing IDs are
// silently absent from the result. Unlike translations, a read failure
// here is a hard error — checkout cannot price a cart without it.
func (s *Service) GetPriceCatalogs(ctx context.Context, ids []uint) ([]PriceCatalog, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []Product
	err := s.db.WithContext(ctx).
		Preload("OneTimeTiers").
		Preload("SubscriptionTiers").
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read price catalogs: %w", err)
	}

	catalogs := make([]PriceCatalog, len(products))
	for i := range products {
		catalogs[i] = BuildPriceCatalog(&products[i])
	}
	return catalogs, nil
}

// CreateProduct creates a product with its price tiers
func (s *Service) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	prod := Product{
		SKU:                   req.SKU,
		Name:                  req.Name,
		Slug:                  req.Slug,
		Description:           req.Description,
		Benefits:              req.Benefits,
		CategoryID:            req.CategoryID,
		Variant:               req.Variant,
		Currency:              s.config.Pricing.Currency,
		MemberPrice:           req.MemberPrice,
		MemberDiscountPercent: req.MemberDiscountPercent,
		IsActive:              req.IsActive,
	}

	for _, tier := range req.OneTimeTiers {
		prod.OneTimeTiers = append(prod.OneTimeTiers, OneTimeTier{
			CapsuleCount: tier.CapsuleCount,
			Amount:       tier.Amount,
		})
	}
	for _, tier := range req.SubscriptionTiers {
		if !IsSupportedDuration(tier.DurationDays) {
			return nil, apperrors.BadRequest(fmt.Sprintf("Unsupported subscription duration: %d days", tier.DurationDays))
		}
		prod.SubscriptionTiers = append(prod.SubscriptionTiers, SubscriptionTier{
			DurationDays:     tier.DurationDays,
			Amount:           tier.Amount,
			DiscountedAmount: tier.DiscountedAmount,
			CapsuleCount:     tier.CapsuleCount,
			SavingsPercent:   tier.SavingsPercent,
			Features:         tier.Features,
			Icon:             tier.Icon,
		})
	}

	if err := s.db.WithContext(ctx).Create(&prod).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &prod, nil
}

// UpdateProductRequest carries partial product updates. Tier slices, when
// present, replace the existing rows wholesale.
type UpdateProductRequest struct {
	Name                  *string     `json:"name"`
	Description           *string     `json:"description"`
	Benefits              *string     `json:"benefits"`
	CategoryID            *uint       `json:"category_id"`
	MemberPrice           *float64    `json:"member_price"`
	MemberDiscountPercent *float64    `json:"member_discount_percent"`
	IsActive              *bool       `json:"is_active"`
	OneTimeTiers          []TierInput `json:"one_time_tiers"`
	SubscriptionTiers     []TierInput `json:"subscription_tiers"`
}

// UpdateProduct updates a product and optionally replaces its price tiers
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	var prod Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&prod).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	for _, tier := range req.SubscriptionTiers {
		if !IsSupportedDuration(tier.DurationDays) {
			return nil, apperrors.BadRequest(fmt.Sprintf("Unsupported subscription duration: %d days", tier.DurationDays))
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Benefits != nil {
		updates["benefits"] = *req.Benefits
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.MemberPrice != nil {
		updates["member_price"] = *req.MemberPrice
	}
	if req.MemberDiscountPercent != nil {
		updates["member_discount_percent"] = *req.MemberDiscountPercent
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&prod).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		}

		if req.OneTimeTiers != nil {
			if err := tx.Where("product_id = ?", id).Delete(&OneTimeTier{}).Error; err != nil {
				return fmt.Errorf("failed to replace one-time tiers: %w", err)
			}
			for _, tier := range req.OneTimeTiers {
				row := OneTimeTier{ProductID: id, CapsuleCount: tier.CapsuleCount, Amount: tier.Amount}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to replace one-time tiers: %w", err)
				}
			}
		}

		if req.SubscriptionTiers != nil {
			if err := tx.Where("product_id = ?", id).Delete(&SubscriptionTier{}).Error; err != nil {
				return fmt.Errorf("failed to replace subscription tiers: %w", err)
			}
			for _, tier := range req.SubscriptionTiers {
				row := SubscriptionTier{
					ProductID:        id,
					DurationDays:     tier.DurationDays,
					Amount:           tier.Amount,
					DiscountedAmount: tier.DiscountedAmount,
					CapsuleCount:     tier.CapsuleCount,
					SavingsPercent:   tier.SavingsPercent,
					Features:         tier.Features,
					Icon:             tier.Icon,
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to replace subscription tiers: %w", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Preload("Category").
		Preload("OneTimeTiers").
		Preload("SubscriptionTiers").
		First(&prod, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return &prod, nil
}

// DeleteProduct soft-deletes a product
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetCategories lists active categories ordered for display
func (s *Service) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

func (s *Service) localize(ctx context.Context, prod *Product, lang string) {
	if s.translations == nil || lang == "" {
		return
	}
	prod.Name = s.translations.Localize(ctx, fmt.Sprintf("product:%d:name", prod.ID), lang, prod.Name)
	prod.Description = s.translations.Localize(ctx, fmt.Sprintf("product:%d:description", prod.ID), lang, prod.Description)
}
