package plan

import "errors"

var (
	ErrEmptyPriceID    = errors.New("price id is required")
	ErrPlanNotFound    = errors.New("no plan configured for price id")
	ErrPackageNotFound = errors.New("no package configured for price id")

	ErrInvalidPriceID = errors.New("price id does not match the provider namespace")
	ErrInvalidTable   = errors.New("invalid plan table configuration")
	ErrLoadFailed     = errors.New("failed to load plan tables")
)
