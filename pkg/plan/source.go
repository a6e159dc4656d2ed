package plan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unblurhq/unblur/pkg/credit"
)

// Source loads the plan and package tables. Implementations run once at
// process start; the returned table is immutable afterwards.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// EnvConfig carries the provider price IDs assigned to the catalog. The
// grant amounts themselves are part of the product and fixed in code; only
// the price IDs differ between environments.
type EnvConfig struct {
	BasicMonthlyPriceID string `env:"STRIPE_PLAN_BASIC_MONTHLY,required"`
	BasicYearlyPriceID  string `env:"STRIPE_PLAN_BASIC_YEARLY,required"`
	ProMonthlyPriceID   string `env:"STRIPE_PLAN_PRO_MONTHLY,required"`
	ProYearlyPriceID    string `env:"STRIPE_PLAN_PRO_YEARLY,required"`
	TrialPackPriceID    string `env:"STRIPE_PACK_TRIAL_PACK,required"`
}

// Built-in grant amounts per plan key.
const (
	basicMonthlyCredit = 100
	proMonthlyCredit   = 400
	trialPackBonus     = 15
)

// EnvSource builds the catalog tables from environment-assigned price IDs.
type EnvSource struct {
	cfg EnvConfig
}

// NewEnvSource creates a Source for the given price-id configuration.
func NewEnvSource(cfg EnvConfig) *EnvSource {
	return &EnvSource{cfg: cfg}
}

// Load assembles and validates the tables. Malformed price IDs fail here,
// at startup, never at request time.
func (s *EnvSource) Load(_ context.Context) (*Table, error) {
	plans := map[string]Plan{
		s.cfg.BasicMonthlyPriceID: {Tier: credit.TierBasic, Key: "BASIC_MONTHLY", Credit: basicMonthlyCredit},
		s.cfg.BasicYearlyPriceID:  {Tier: credit.TierBasic, Key: "BASIC_YEARLY", Credit: basicMonthlyCredit},
		s.cfg.ProMonthlyPriceID:   {Tier: credit.TierPro, Key: "PRO_MONTHLY", Credit: proMonthlyCredit},
		s.cfg.ProYearlyPriceID:    {Tier: credit.TierPro, Key: "PRO_YEARLY", Credit: proMonthlyCredit},
	}
	packages := map[string]Package{
		s.cfg.TrialPackPriceID: {ID: "TRIAL_PACK", Bonus: trialPackBonus},
	}

	table, err := NewTable(plans, packages)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	return table, nil
}

// FileSource loads arbitrary tables from a YAML document:
//
//	plans:
//	  price_basic_monthly:
//	    tier: basic
//	    key: BASIC_MONTHLY
//	    credit: 100
//	packages:
//	  price_trial_pack:
//	    id: TRIAL_PACK
//	    bonus_credit: 15
type FileSource struct {
	path string
}

// NewFileSource creates a Source reading from the given YAML file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(_ context.Context) (*Table, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, fmt.Errorf("read %s: %w", s.path, err))
	}

	var doc struct {
		Plans    map[string]Plan    `yaml:"plans"`
		Packages map[string]Package `yaml:"packages"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrLoadFailed, fmt.Errorf("parse %s: %w", s.path, err))
	}

	table, err := NewTable(doc.Plans, doc.Packages)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	return table, nil
}

// StaticSource wraps an already-built table, mainly for tests.
type StaticSource struct {
	table *Table
}

func NewStaticSource(table *Table) *StaticSource {
	return &StaticSource{table: table}
}

func (s *StaticSource) Load(_ context.Context) (*Table, error) {
	if s.table == nil {
		return nil, ErrLoadFailed
	}
	return s.table, nil
}
