package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unblurhq/unblur/pkg/credit"
	"github.com/unblurhq/unblur/pkg/plan"
)

func testTable(t *testing.T) *plan.Table {
	t.Helper()

	table, err := plan.NewTable(
		map[string]plan.Plan{
			"price_basic_m": {Tier: credit.TierBasic, Key: "BASIC_MONTHLY", Credit: 100},
			"price_pro_m":   {Tier: credit.TierPro, Key: "PRO_MONTHLY", Credit: 400},
		},
		map[string]plan.Package{
			"price_trial": {ID: "TRIAL_PACK", Bonus: 15},
		},
	)
	require.NoError(t, err)
	return table
}

func TestTableLookups(t *testing.T) {
	t.Parallel()

	table := testTable(t)

	t.Run("resolves plan", func(t *testing.T) {
		t.Parallel()

		p, err := table.PlanByPriceID("price_pro_m")
		require.NoError(t, err)
		assert.Equal(t, credit.TierPro, p.Tier)
		assert.Equal(t, int64(400), p.Credit)
	})

	t.Run("resolves package", func(t *testing.T) {
		t.Parallel()

		p, err := table.PackageByPriceID("price_trial")
		require.NoError(t, err)
		assert.Equal(t, "TRIAL_PACK", p.ID)
		assert.Equal(t, int64(15), p.Bonus)
	})

	t.Run("unknown plan price id", func(t *testing.T) {
		t.Parallel()

		_, err := table.PlanByPriceID("price_unknown")
		assert.ErrorIs(t, err, plan.ErrPlanNotFound)
	})

	t.Run("unknown package price id", func(t *testing.T) {
		t.Parallel()

		_, err := table.PackageByPriceID("price_unknown")
		assert.ErrorIs(t, err, plan.ErrPackageNotFound)
	})

	t.Run("empty price id is a caller bug", func(t *testing.T) {
		t.Parallel()

		_, err := table.PlanByPriceID("")
		assert.ErrorIs(t, err, plan.ErrEmptyPriceID)

		_, err = table.PackageByPriceID("")
		assert.ErrorIs(t, err, plan.ErrEmptyPriceID)
	})

	t.Run("package price does not resolve as plan", func(t *testing.T) {
		t.Parallel()

		_, err := table.PlanByPriceID("price_trial")
		assert.ErrorIs(t, err, plan.ErrPlanNotFound)
	})
}

func TestNewTableValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects price id without provider prefix", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewTable(map[string]plan.Plan{
			"basic_monthly": {Tier: credit.TierBasic, Credit: 100},
		}, nil)
		assert.ErrorIs(t, err, plan.ErrInvalidPriceID)
	})

	t.Run("rejects bare prefix", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewTable(nil, map[string]plan.Package{
			"price_": {ID: "X", Bonus: 1},
		})
		assert.ErrorIs(t, err, plan.ErrInvalidPriceID)
	})

	t.Run("rejects free tier plan", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewTable(map[string]plan.Plan{
			"price_x": {Tier: credit.TierFree, Credit: 100},
		}, nil)
		assert.ErrorIs(t, err, plan.ErrInvalidTable)
	})

	t.Run("rejects non-positive credit grant", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewTable(map[string]plan.Plan{
			"price_x": {Tier: credit.TierBasic, Credit: 0},
		}, nil)
		assert.ErrorIs(t, err, plan.ErrInvalidTable)
	})

	t.Run("rejects non-positive package bonus", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewTable(nil, map[string]plan.Package{
			"price_x": {ID: "X", Bonus: 0},
		})
		assert.ErrorIs(t, err, plan.ErrInvalidTable)
	})
}

func TestEnvSource(t *testing.T) {
	t.Parallel()

	t.Run("loads catalog with built-in grants", func(t *testing.T) {
		t.Parallel()

		src := plan.NewEnvSource(plan.EnvConfig{
			BasicMonthlyPriceID: "price_bm",
			BasicYearlyPriceID:  "price_by",
			ProMonthlyPriceID:   "price_pm",
			ProYearlyPriceID:    "price_py",
			TrialPackPriceID:    "price_tp",
		})

		table, err := src.Load(context.Background())
		require.NoError(t, err)

		basic, err := table.PlanByPriceID("price_bm")
		require.NoError(t, err)
		assert.Equal(t, int64(100), basic.Credit)
		assert.Equal(t, int64(0), basic.Bonus)

		pro, err := table.PlanByPriceID("price_py")
		require.NoError(t, err)
		assert.Equal(t, credit.TierPro, pro.Tier)
		assert.Equal(t, int64(400), pro.Credit)

		pack, err := table.PackageByPriceID("price_tp")
		require.NoError(t, err)
		assert.Equal(t, int64(15), pack.Bonus)
	})

	t.Run("fails fast on malformed price id", func(t *testing.T) {
		t.Parallel()

		src := plan.NewEnvSource(plan.EnvConfig{
			BasicMonthlyPriceID: "bm", // missing prefix
			BasicYearlyPriceID:  "price_by",
			ProMonthlyPriceID:   "price_pm",
			ProYearlyPriceID:    "price_py",
			TrialPackPriceID:    "price_tp",
		})

		_, err := src.Load(context.Background())
		assert.ErrorIs(t, err, plan.ErrLoadFailed)
		assert.ErrorIs(t, err, plan.ErrInvalidPriceID)
	})
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	t.Run("loads yaml tables", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		doc := `
plans:
  price_starter:
    tier: basic
    key: STARTER
    credit: 50
packages:
  price_booster:
    id: BOOSTER
    bonus_credit: 25
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		table, err := plan.NewFileSource(path).Load(context.Background())
		require.NoError(t, err)

		p, err := table.PlanByPriceID("price_starter")
		require.NoError(t, err)
		assert.Equal(t, int64(50), p.Credit)

		pack, err := table.PackageByPriceID("price_booster")
		require.NoError(t, err)
		assert.Equal(t, int64(25), pack.Bonus)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
		assert.ErrorIs(t, err, plan.ErrLoadFailed)
	})
}
