package credit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unblurhq/unblur/pkg/credit"
)

func TestConsume(t *testing.T) {
	t.Parallel()

	t.Run("regular credit covers the full amount", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(100, 15, 30)
		assert.Equal(t, int64(70), b.Credit)
		assert.Equal(t, int64(15), b.Bonus)
	})

	t.Run("exact regular balance leaves bonus untouched", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(30, 5, 30)
		assert.Equal(t, int64(0), b.Credit)
		assert.Equal(t, int64(5), b.Bonus)
	})

	t.Run("shortfall drawn from bonus", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(10, 15, 12)
		assert.Equal(t, int64(0), b.Credit)
		assert.Equal(t, int64(13), b.Bonus)
	})

	t.Run("shortfall beyond bonus is dropped", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(1, 2, 100)
		assert.Equal(t, int64(0), b.Credit)
		assert.Equal(t, int64(0), b.Bonus)
	})

	t.Run("zero amount returns clamped inputs unchanged", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(7, 3, 0)
		assert.Equal(t, credit.Balance{Credit: 7, Bonus: 3}, b)
	})

	t.Run("negative amount is treated as zero", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(7, 3, -5)
		assert.Equal(t, credit.Balance{Credit: 7, Bonus: 3}, b)
	})

	t.Run("negative balances are clamped before computing", func(t *testing.T) {
		t.Parallel()

		b := credit.Consume(-20, -4, 1)
		assert.Equal(t, int64(0), b.Credit)
		assert.Equal(t, int64(0), b.Bonus)
	})

	t.Run("never yields a negative pool for any inputs", func(t *testing.T) {
		t.Parallel()

		for _, c := range []int64{-10, 0, 1, 5, 100} {
			for _, bonus := range []int64{-3, 0, 2, 50} {
				for _, amount := range []int64{-1, 0, 1, 7, 1000} {
					b := credit.Consume(c, bonus, amount)
					assert.GreaterOrEqual(t, b.Credit, int64(0))
					assert.GreaterOrEqual(t, b.Bonus, int64(0))
				}
			}
		}
	})
}

func TestHasEnough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		credit   int64
		bonus    int64
		required int64
		want     bool
	}{
		{"regular alone suffices", 10, 0, 10, true},
		{"pools combine", 5, 5, 10, true},
		{"one short", 5, 4, 10, false},
		{"zero required always passes", 0, 0, 0, true},
		{"negative regular counts as zero", -100, 10, 10, true},
		{"negative bonus counts as zero", 10, -5, 11, false},
		{"both negative against positive requirement", -1, -1, 1, false},
		{"negative requirement passes on empty account", 0, 0, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, credit.HasEnough(tt.credit, tt.bonus, tt.required))
		})
	}
}

func TestBalanceTotal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(15), credit.Balance{Credit: 10, Bonus: 5}.Total())
	assert.Equal(t, int64(5), credit.Balance{Credit: -10, Bonus: 5}.Total())
	assert.Equal(t, int64(0), credit.Balance{}.Total())
}
