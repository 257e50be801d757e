package domain

import "errors"

var (
	// ErrScenarioNotFound indicates the scenario id does not exist.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrInvalidPeriod indicates a malformed or out-of-range year-month.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidHorizon indicates a scenario horizon outside 1..MaxHorizonMonths.
	ErrInvalidHorizon = errors.New("invalid scenario horizon")
	// ErrRunNotFound indicates the engine run id does not exist.
	ErrRunNotFound = errors.New("engine run not found")
	// ErrUnknownCategory indicates a category code outside the engine's set.
	ErrUnknownCategory = errors.New("unknown engine category")
	// ErrNoCategories indicates a run request without any enabled category.
	ErrNoCategories = errors.New("no enabled categories")
)
