// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/supplement-store-backend/internal/domain/cart"
	"github.com/your-org/supplement-store-backend/internal/domain/coupon"
	"github.com/your-org/supplement-store-backend/internal/domain/membership"
	"github.com/your-org/supplement-store-backend/internal/domain/order"
	"github.com/your-org/supplement-store-backend/internal/domain/product"
	"github.com/your-org/supplement-store-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// User domain
		&user.User{},
		&user.Address{},

		// Product domain
		&product.Category{},
		&product.Product{},
		&product.OneTimeTier{},
		&product.SubscriptionTier{},

		// Membership domain
		&membership.Membership{},

		// Cart domain
		&cart.CartItem{},

		// Coupon domain
		&coupon.Coupon{},
		&coupon.ProductRule{},
		&coupon.CategoryRule{},
		&coupon.UsageHistory{},

		// Order domain
		&order.Order{},
		&order.Item{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_variant_active ON products(variant, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",
		"CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug)",

		// Pricing tier indexes
		"CREATE INDEX IF NOT EXISTS idx_one_time_tiers_product ON one_time_tiers(product_id, capsule_count)",
		"CREATE INDEX IF NOT EXISTS idx_subscription_tiers_product ON subscription_tiers(product_id, duration_days)",

		// Membership indexes
		"CREATE INDEX IF NOT EXISTS idx_memberships_user_status ON memberships(user_id, status)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id, created_at)",

		// Coupon indexes
		"CREATE INDEX IF NOT EXISTS idx_coupons_code_active ON coupons(code, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_coupon_usage_user ON coupon_usage_history(coupon_id, user_id)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",

		// Address indexes
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_type ON addresses(user_id, type)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedCategories creates default product categories
func (m *Migration) seedCategories() error {
	log.Println("🏷️ Seeding categories...")

	categories := []product.Category{
		{
			Name:        "Daily Essentials",
			Slug:        "daily-essentials",
			Description: "Multivitamins and everyday supplements",
			SortOrder:   1,
			IsActive:    true,
		},
		{
			Name:        "Sleep & Recovery",
			Slug:        "sleep-recovery",
			Description: "Supplements supporting rest and recovery",
			SortOrder:   2,
			IsActive:    true,
		},
		{
			Name:        "Energy & Focus",
			Slug:        "energy-focus",
			Description: "Supplements for concentration and energy",
			SortOrder:   3,
			IsActive:    true,
		},
	}

	for _, category := range categories {
		var existing product.Category
		result := m.db.Where("slug = ?", category.Slug).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&category).Error; err != nil {
				return err
			}
			log.Printf("✅ Created category: %s", category.Name)
		} else {
			log.Printf("⏭️ Category already exists: %s", category.Name)
		}
	}

	return nil
}

func (m *Migration) seedUsers() error {
	log.Println("👤 Seeding users...")

	seeds := []struct {
		email    string
		password string
		first    string
		last     string
		isAdmin  bool
	}{
		{"admin@example.com", "Admin1234", "Admin", "User", true},
		{"test1@example.com", "Test1234", "Test", "User", false},
	}

	for _, seed := range seeds {
		var existing user.User
		result := m.db.Where("email = ?", seed.email).First(&existing)
		if result.Error == nil {
			log.Printf("⏭️ User already exists: %s", seed.email)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seed.password), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		u := user.User{
			Email:     seed.email,
			Password:  string(hashedPassword),
			FirstName: seed.first,
			LastName:  seed.last,
			IsActive:  true,
			IsAdmin:   seed.isAdmin,
		}
		if err := m.db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", seed.email, err)
		}
		log.Printf("✅ Created user: %s", seed.email)
	}

	return nil
}

// seedProducts creates sample supplements covering both pricing families
func (m *Migration) seedProducts() error {
	log.Println("🛍️ Seeding products...")

	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount > 0 {
		log.Println("⏭️ Products already exist")
		return nil
	}

	discounted60 := 53.99
	discounted180 := 203.99

	products := []product.Product{
		{
			SKU:         "SUP-MAG-001",
			Name:        "Magnesium Complex",
			Slug:        "magnesium-complex",
			Description: "Highly absorbable magnesium blend supporting sleep and muscle recovery.",
			Benefits:    "sleep,recovery,relaxation",
			CategoryID:  2,
			Variant:     product.VariantSachet,
			Currency:    "EUR",
			IsActive:    true,
			OneTimeTiers: []product.OneTimeTier{
				{CapsuleCount: 30, Amount: 24.99},
				{CapsuleCount: 60, Amount: 44.99},
			},
			SubscriptionTiers: []product.SubscriptionTier{
				{DurationDays: 30, Amount: 29.99, CapsuleCount: 30, Features: "Free delivery,Cancel anytime", Icon: "moon"},
				{DurationDays: 60, Amount: 59.99, DiscountedAmount: &discounted60, CapsuleCount: 60, Features: "Free delivery,Cancel anytime", Icon: "moon"},
				{DurationDays: 90, Amount: 89.99, CapsuleCount: 90, Features: "Free delivery,Cancel anytime,Best value", Icon: "moon"},
				{DurationDays: 180, Amount: 239.99, DiscountedAmount: &discounted180, CapsuleCount: 180, Features: "Free delivery,Cancel anytime", Icon: "moon"},
			},
		},
		{
			SKU:         "SUP-OMG-002",
			Name:        "Omega-3 Fish Oil",
			Slug:        "omega-3-fish-oil",
			Description: "High-potency EPA and DHA from sustainably sourced fish oil.",
			Benefits:    "heart,brain,joints",
			CategoryID:  1,
			Variant:     product.VariantStandUpPouch,
			Currency:    "EUR",
			IsActive:    true,
			OneTimeTiers: []product.OneTimeTier{
				{CapsuleCount: 0, Amount: 34.99},
			},
		},
		{
			SKU:         "SUP-FOC-003",
			Name:        "Focus Nootropic Blend",
			Slug:        "focus-nootropic-blend",
			Description: "Caffeine-free nootropic stack for sustained concentration.",
			Benefits:    "focus,memory,clarity",
			CategoryID:  3,
			Variant:     product.VariantSachet,
			Currency:    "EUR",
			IsActive:    true,
			OneTimeTiers: []product.OneTimeTier{
				{CapsuleCount: 30, Amount: 39.99},
				{CapsuleCount: 60, Amount: 74.99},
			},
			SubscriptionTiers: []product.SubscriptionTier{
				{DurationDays: 30, Amount: 44.99, CapsuleCount: 30, Features: "Free delivery,Cancel anytime", Icon: "bolt"},
				{DurationDays: 90, Amount: 129.99, CapsuleCount: 90, Features: "Free delivery,Cancel anytime,Best value", Icon: "bolt"},
			},
		},
	}

	for _, prod := range products {
		if err := m.db.Create(&prod).Error; err != nil {
			log.Printf("⚠️ Failed to create product %s: %v", prod.SKU, err)
		} else {
			log.Printf("✅ Created product: %s", prod.Name)
		}
	}

	return nil
}

// seedCoupons creates sample coupons for development
func (m *Migration) seedCoupons() error {
	log.Println("🎟️ Seeding coupons...")

	var couponCount int64
	m.db.Model(&coupon.Coupon{}).Count(&couponCount)
	if couponCount > 0 {
		log.Println("⏭️ Coupons already exist")
		return nil
	}

	maxDiscount := 15.0
	minOrder := 50.0
	usageLimit := 1000
	userLimit := 1

	coupons := []coupon.Coupon{
		{
			Code:              "WELCOME20",
			Type:              coupon.TypePercentage,
			Value:             20,
			MaxDiscountAmount: &maxDiscount,
			UserUsageLimit:    &userLimit,
			IsActive:          true,
		},
		{
			Code:           "SAVE10",
			Type:           coupon.TypeFixed,
			Value:          10,
			MinOrderAmount: &minOrder,
			UsageLimit:     &usageLimit,
			IsActive:       true,
		},
		{
			Code:     "FREESHIP",
			Type:     coupon.TypeFreeShipping,
			Value:    0,
			IsActive: true,
		},
	}

	for _, c := range coupons {
		if err := m.db.Create(&c).Error; err != nil {
			log.Printf("⚠️ Failed to create coupon %s: %v", c.Code, err)
		} else {
			log.Printf("✅ Created coupon: %s", c.Code)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"order_items",
		"orders",
		"coupon_usage_history",
		"coupon_category_rules",
		"coupon_product_rules",
		"coupons",
		"cart_items",
		"memberships",
		"subscription_tiers",
		"one_time_tiers",
		"products",
		"categories",
		"addresses",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}
