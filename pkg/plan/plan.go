package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unblurhq/unblur/pkg/credit"
)

// PriceIDPrefix is the namespace prefix of the payment provider's price
// identifiers. Every table key must carry it.
const PriceIDPrefix = "price_"

// Plan is the grant attached to a recurring subscription price.
type Plan struct {
	Tier   credit.Tier `yaml:"tier"`
	Key    string      `yaml:"key"` // stable internal name, e.g. BASIC_MONTHLY
	Credit int64       `yaml:"credit"`
	Bonus  int64       `yaml:"bonus_credit"`
}

// Package is the grant attached to a one-time purchase price. One-time
// packages only ever grant bonus credit.
type Package struct {
	ID    string `yaml:"id"` // stable internal name, e.g. TRIAL_PACK
	Bonus int64  `yaml:"bonus_credit"`
}

// Table holds the immutable price-id lookup tables. Construct it through
// NewTable (or a Source); the zero value resolves nothing.
type Table struct {
	plans    map[string]Plan
	packages map[string]Package
}

// NewTable validates and freezes the given mappings. The input maps are
// copied so later caller mutations cannot leak into the table.
func NewTable(plans map[string]Plan, packages map[string]Package) (*Table, error) {
	t := &Table{
		plans:    make(map[string]Plan, len(plans)),
		packages: make(map[string]Package, len(packages)),
	}

	for priceID, p := range plans {
		if err := validatePriceID(priceID); err != nil {
			return nil, err
		}
		if !p.Tier.Valid() || p.Tier == credit.TierFree {
			return nil, errors.Join(ErrInvalidTable,
				fmt.Errorf("plan %s: tier %q is not a paid tier", priceID, p.Tier))
		}
		if p.Credit <= 0 {
			return nil, errors.Join(ErrInvalidTable,
				fmt.Errorf("plan %s: credit grant must be positive, got %d", priceID, p.Credit))
		}
		if p.Bonus < 0 {
			return nil, errors.Join(ErrInvalidTable,
				fmt.Errorf("plan %s: bonus grant must not be negative, got %d", priceID, p.Bonus))
		}
		t.plans[priceID] = p
	}

	for priceID, p := range packages {
		if err := validatePriceID(priceID); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errors.Join(ErrInvalidTable,
				fmt.Errorf("package %s: id is required", priceID))
		}
		if p.Bonus <= 0 {
			return nil, errors.Join(ErrInvalidTable,
				fmt.Errorf("package %s: bonus grant must be positive, got %d", priceID, p.Bonus))
		}
		t.packages[priceID] = p
	}

	return t, nil
}

// PlanByPriceID resolves a subscription price to its plan grant.
func (t *Table) PlanByPriceID(priceID string) (Plan, error) {
	if priceID == "" {
		return Plan{}, ErrEmptyPriceID
	}
	p, ok := t.plans[priceID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// PackageByPriceID resolves a one-time purchase price to its package grant.
func (t *Table) PackageByPriceID(priceID string) (Package, error) {
	if priceID == "" {
		return Package{}, ErrEmptyPriceID
	}
	p, ok := t.packages[priceID]
	if !ok {
		return Package{}, ErrPackageNotFound
	}
	return p, nil
}

func validatePriceID(priceID string) error {
	if !strings.HasPrefix(priceID, PriceIDPrefix) || len(priceID) == len(PriceIDPrefix) {
		return errors.Join(ErrInvalidPriceID,
			fmt.Errorf("price id %q must start with %q", priceID, PriceIDPrefix))
	}
	return nil
}
