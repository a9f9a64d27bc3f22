// internal/domain/coupon/service_test.go
package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	coupons    map[string]*Coupon
	userUsage  map[uint]int64
	orderUsage map[[2]uint]bool
	created    []*UsageHistory

	findErr      error
	incrementOK  bool
	incrementErr error
}

func newFakeStore(coupons ...*Coupon) *fakeStore {
	store := &fakeStore{
		coupons:     make(map[string]*Coupon),
		userUsage:   make(map[uint]int64),
		orderUsage:  make(map[[2]uint]bool),
		incrementOK: true,
	}
	for _, c := range coupons {
		store.coupons[c.Code] = c
	}
	return store
}

func (f *fakeStore) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.coupons[code], nil
}

func (f *fakeStore) CountUserUsage(ctx context.Context, couponID, userID uint) (int64, error) {
	return f.userUsage[userID], nil
}

func (f *fakeStore) HasUsage(ctx context.Context, couponID, orderID uint) (bool, error) {
	return f.orderUsage[[2]uint{couponID, orderID}], nil
}

func (f *fakeStore) CreateUsage(ctx context.Context, usage *UsageHistory) error {
	f.orderUsage[[2]uint{usage.CouponID, usage.OrderID}] = true
	f.created = append(f.created, usage)
	return nil
}

func (f *fakeStore) IncrementUsage(ctx context.Context, couponID uint) (bool, error) {
	if f.incrementErr != nil {
		return false, f.incrementErr
	}
	if !f.incrementOK {
		return false, nil
	}
	if c, ok := f.byID(couponID); ok {
		c.UsageCount++
	}
	return true, nil
}

func (f *fakeStore) byID(id uint) (*Coupon, bool) {
	for _, c := range f.coupons {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestService(store Store, now time.Time) *Service {
	s := NewService(store, quietLogger())
	s.now = func() time.Time { return now }
	return s
}

func TestValidatePercentageCappedByMaxDiscount(t *testing.T) {
	store := newFakeStore(&Coupon{
		ID:                1,
		Code:              "WELCOME20",
		Type:              TypePercentage,
		Value:             20,
		MaxDiscountAmount: floatPtr(15),
		IsActive:          true,
	})
	s := newTestService(store, time.Now().UTC())

	app, err := s.Validate(context.Background(), "WELCOME20", ValidationInput{UserID: 1, OrderAmount: 100})
	require.NoError(t, err)
	assert.Equal(t, 15.00, app.DiscountAmount)
	assert.False(t, app.FreeShipping)
}

func TestValidatePercentageWithoutCap(t *testing.T) {
	store := newFakeStore(&Coupon{
		ID:       1,
		Code:     "TEN",
		Type:     TypePercentage,
		Value:    10,
		IsActive: true,
	})
	s := newTestService(store, time.Now().UTC())

	app, err := s.Validate(context.Background(), "TEN", ValidationInput{UserID: 1, OrderAmount: 79.90})
	require.NoError(t, err)
	assert.Equal(t, 7.99, app.DiscountAmount)
}

func TestValidateFixedCappedByOrderAmount(t *testing.T) {
	store := newFakeStore(&Coupon{
		ID:       2,
		Code:     "SAVE10",
		Type:     TypeFixed,
		Value:    10,
		IsActive: true,
	})
	s := newTestService(store, time.Now().UTC())

	app, err := s.Validate(context.Background(), "SAVE10", ValidationInput{UserID: 1, OrderAmount: 5})
	require.NoError(t, err)
	assert.Equal(t, 5.00, app.DiscountAmount)
}

func TestValidateFreeShipping(t *testing.T) {
	store := newFakeStore(&Coupon{
		ID:       3,
		Code:     "FREESHIP",
		Type:     TypeFreeShipping,
		Value:    0,
		IsActive: true,
	})
	s := newTestService(store, time.Now().UTC())

	app, err := s.Validate(context.Background(), "FREESHIP", ValidationInput{UserID: 1, OrderAmount: 40})
	require.NoError(t, err)
	assert.Equal(t, 0.0, app.DiscountAmount)
	assert.True(t, app.FreeShipping)
}

func TestValidateNotFound(t *testing.T) {
	s := newTestService(newFakeStore(), time.Now().UTC())

	_, err := s.Validate(context.Background(), "NOPE", ValidationInput{UserID: 1, OrderAmount: 40})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateInactive(t *testing.T) {
	store := newFakeStore(&Coupon{ID: 1, Code: "OLD", Type: TypeFixed, Value: 5, IsActive: false})
	s := newTestService(store, time.Now().UTC())

	_, err := s.Validate(context.Background(), "OLD", ValidationInput{UserID: 1, OrderAmount: 40})
	assert.ErrorIs(t, err, ErrInactive)
}

func TestValidateTimeWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("not yet valid", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "SOON", Type: TypeFixed, Value: 5, IsActive: true,
			ValidFrom: timePtr(now.Add(time.Hour)),
		})
		_, err := newTestService(store, now).Validate(context.Background(), "SOON", ValidationInput{UserID: 1, OrderAmount: 40})
		assert.ErrorIs(t, err, ErrNotYetValid)
	})

	t.Run("expired", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "LATE", Type: TypeFixed, Value: 5, IsActive: true,
			ValidUntil: timePtr(now.Add(-time.Hour)),
		})
		_, err := newTestService(store, now).Validate(context.Background(), "LATE", ValidationInput{UserID: 1, OrderAmount: 40})
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("inside window", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "NOW", Type: TypeFixed, Value: 5, IsActive: true,
			ValidFrom:  timePtr(now.Add(-time.Hour)),
			ValidUntil: timePtr(now.Add(time.Hour)),
		})
		_, err := newTestService(store, now).Validate(context.Background(), "NOW", ValidationInput{UserID: 1, OrderAmount: 40})
		assert.NoError(t, err)
	})
}

func TestValidateUsageLimits(t *testing.T) {
	t.Run("global limit reached", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "CAPPED", Type: TypeFixed, Value: 5, IsActive: true,
			UsageLimit: intPtr(100), UsageCount: 100,
		})
		_, err := newTestService(store, time.Now().UTC()).Validate(context.Background(), "CAPPED", ValidationInput{UserID: 1, OrderAmount: 40})
		assert.ErrorIs(t, err, ErrUsageLimitReached)
	})

	t.Run("per-user limit reached", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "ONCE", Type: TypeFixed, Value: 5, IsActive: true,
			UserUsageLimit: intPtr(1),
		})
		store.userUsage[7] = 1
		_, err := newTestService(store, time.Now().UTC()).Validate(context.Background(), "ONCE", ValidationInput{UserID: 7, OrderAmount: 40})
		assert.ErrorIs(t, err, ErrUserUsageLimitReached)
	})
}

func TestValidateBelowMinimum(t *testing.T) {
	store := newFakeStore(&Coupon{
		ID: 1, Code: "BIG", Type: TypeFixed, Value: 10, IsActive: true,
		MinOrderAmount: floatPtr(50),
	})
	s := newTestService(store, time.Now().UTC())

	_, err := s.Validate(context.Background(), "BIG", ValidationInput{UserID: 1, OrderAmount: 49.99})
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestValidateProductAndCategoryScoping(t *testing.T) {
	t.Run("applicable products miss", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "MAG", Type: TypeFixed, Value: 5, IsActive: true,
			ProductRules: []ProductRule{{ProductID: 10}},
		})
		_, err := newTestService(store, time.Now().UTC()).Validate(context.Background(), "MAG", ValidationInput{
			UserID: 1, OrderAmount: 40, ProductIDs: []uint{11, 12},
		})
		assert.ErrorIs(t, err, ErrNotApplicableProducts)
	})

	t.Run("applicable categories miss", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "SLEEP", Type: TypeFixed, Value: 5, IsActive: true,
			CategoryRules: []CategoryRule{{CategoryID: 2}},
		})
		_, err := newTestService(store, time.Now().UTC()).Validate(context.Background(), "SLEEP", ValidationInput{
			UserID: 1, OrderAmount: 40, ProductIDs: []uint{10}, CategoryIDs: []uint{1},
		})
		assert.ErrorIs(t, err, ErrNotApplicableCategories)
	})

	t.Run("excluded product present", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "NOTOMEGA", Type: TypeFixed, Value: 5, IsActive: true,
			ProductRules: []ProductRule{{ProductID: 20, Exclude: true}},
		})
		_, err := newTestService(store, time.Now().UTC()).Validate(context.Background(), "NOTOMEGA", ValidationInput{
			UserID: 1, OrderAmount: 40, ProductIDs: []uint{10, 20},
		})
		assert.ErrorIs(t, err, ErrExcludedProduct)
	})

	t.Run("applicable product hit passes", func(t *testing.T) {
		store := newFakeStore(&Coupon{
			ID: 1, Code: "MAG", Type: TypeFixed, Value: 5, IsActive: true,
			ProductRules: []ProductRule{{ProductID: 10}},
		})
		app, err := newTestService(store, time.Now().UTC()).Validate(context.Background(), "MAG", ValidationInput{
			UserID: 1, OrderAmount: 40, ProductIDs: []uint{10, 11},
		})
		require.NoError(t, err)
		assert.Equal(t, 5.00, app.DiscountAmount)
	})
}

func TestValidateOrderShortCircuits(t *testing.T) {
	// Inactive coupon with every other check also failing must still
	// report the activity failure first.
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(&Coupon{
		ID: 1, Code: "MESS", Type: TypePercentage, Value: 150, IsActive: false,
		ValidUntil:     timePtr(now.Add(-time.Hour)),
		UsageLimit:     intPtr(1),
		UsageCount:     5,
		MinOrderAmount: floatPtr(1000),
	})

	_, err := newTestService(store, now).Validate(context.Background(), "MESS", ValidationInput{UserID: 1, OrderAmount: 40})
	assert.ErrorIs(t, err, ErrInactive)
}

func TestValidateInvalidPercentage(t *testing.T) {
	store := newFakeStore(&Coupon{
		ID: 1, Code: "BROKEN", Type: TypePercentage, Value: 150, IsActive: true,
	})
	s := newTestService(store, time.Now().UTC())

	_, err := s.Validate(context.Background(), "BROKEN", ValidationInput{UserID: 1, OrderAmount: 40})
	assert.ErrorIs(t, err, ErrInvalidPercentage)
}

func TestTrackUsage(t *testing.T) {
	coupon := &Coupon{ID: 1, Code: "SAVE10", Type: TypeFixed, Value: 10, IsActive: true}

	t.Run("records usage and bumps count", func(t *testing.T) {
		store := newFakeStore(coupon)
		s := newTestService(store, time.Now().UTC())

		require.NoError(t, s.TrackUsage(context.Background(), 1, 100, 7))
		require.Len(t, store.created, 1)
		assert.Equal(t, uint(100), store.created[0].OrderID)
		assert.Equal(t, 1, coupon.UsageCount)
	})

	t.Run("idempotent on same order", func(t *testing.T) {
		coupon.UsageCount = 0
		store := newFakeStore(coupon)
		s := newTestService(store, time.Now().UTC())

		require.NoError(t, s.TrackUsage(context.Background(), 1, 100, 7))
		require.NoError(t, s.TrackUsage(context.Background(), 1, 100, 7))
		assert.Len(t, store.created, 1)
		assert.Equal(t, 1, coupon.UsageCount)
	})

	t.Run("limit exhausted between validation and confirmation", func(t *testing.T) {
		store := newFakeStore(coupon)
		store.incrementOK = false
		s := newTestService(store, time.Now().UTC())

		err := s.TrackUsage(context.Background(), 1, 200, 7)
		assert.ErrorIs(t, err, ErrUsageLimitReached)
	})
}
