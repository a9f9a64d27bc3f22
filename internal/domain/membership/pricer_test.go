// internal/domain/membership/pricer_test.go
package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

type fakeChecker struct {
	member bool
	err    error
}

func (f *fakeChecker) IsMember(ctx context.Context, userID uint) (bool, error) {
	return f.member, f.err
}

func float64Ptr(v float64) *float64 { return &v }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestPriceNonMember(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: false}, 10, testLogger())

	result := pricer.Price(context.Background(), PriceSource{Price: money.New("EUR", 50)}, 1)

	assert.False(t, result.IsMember)
	assert.Equal(t, 50.0, result.MemberPrice.Amount)
	assert.Equal(t, 0.0, result.DiscountAmount)
	assert.Empty(t, result.AppliedDiscount)
}

func TestPriceCheckerErrorDegradesToNonMember(t *testing.T) {
	pricer := NewPricer(&fakeChecker{err: errors.New("db down")}, 10, testLogger())

	result := pricer.Price(context.Background(), PriceSource{Price: money.New("EUR", 50)}, 1)

	assert.False(t, result.IsMember)
	assert.Equal(t, 50.0, result.MemberPrice.Amount)
}

func TestPriceFixedMemberPriceWins(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 10, testLogger())

	src := PriceSource{
		Price:                 money.New("EUR", 50),
		MemberPrice:           float64Ptr(42),
		MemberDiscountPercent: float64Ptr(20),
	}
	result := pricer.Price(context.Background(), src, 1)

	assert.True(t, result.IsMember)
	assert.Equal(t, 42.0, result.MemberPrice.Amount)
	assert.Equal(t, 8.0, result.DiscountAmount)
	assert.Equal(t, "member_price", result.AppliedDiscount)
	assert.Equal(t, 16.0, result.DiscountPercent)
}

func TestPriceProductPercentBeatsDefault(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 10, testLogger())

	src := PriceSource{
		Price:                 money.New("EUR", 100),
		MemberDiscountPercent: float64Ptr(20),
	}
	result := pricer.Price(context.Background(), src, 1)

	assert.Equal(t, 80.0, result.MemberPrice.Amount)
	assert.Equal(t, "member_percent", result.AppliedDiscount)
}

func TestPriceDefaultPercent(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 10, testLogger())

	result := pricer.Price(context.Background(), PriceSource{Price: money.New("EUR", 100)}, 1)

	assert.Equal(t, 90.0, result.MemberPrice.Amount)
	assert.Equal(t, "default_percent", result.AppliedDiscount)
}

func TestPriceClampsMemberPriceAboveOriginal(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 10, testLogger())

	src := PriceSource{
		Price:       money.New("EUR", 50),
		MemberPrice: float64Ptr(60),
	}
	result := pricer.Price(context.Background(), src, 1)

	assert.Equal(t, 50.0, result.MemberPrice.Amount)
	assert.Equal(t, 0.0, result.DiscountAmount)
}

func TestPricePercentClampedToHundred(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 10, testLogger())

	src := PriceSource{
		Price:                 money.New("EUR", 50),
		MemberDiscountPercent: float64Ptr(150),
	}
	result := pricer.Price(context.Background(), src, 1)

	assert.Equal(t, 0.0, result.MemberPrice.Amount)
	assert.Equal(t, 50.0, result.DiscountAmount)
}

func TestPriceNegativePercentClampedToZero(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 10, testLogger())

	src := PriceSource{
		Price:                 money.New("EUR", 50),
		MemberDiscountPercent: float64Ptr(-5),
	}
	result := pricer.Price(context.Background(), src, 1)

	assert.Equal(t, 50.0, result.MemberPrice.Amount)
}

func TestNewPricerClampsDefaultPercent(t *testing.T) {
	pricer := NewPricer(&fakeChecker{member: true}, 200, testLogger())

	result := pricer.Price(context.Background(), PriceSource{Price: money.New("EUR", 50)}, 1)
	assert.Equal(t, 0.0, result.MemberPrice.Amount)
}
