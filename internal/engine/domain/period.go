package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// YM is a calendar year-month. The zero value means "unset" and callers that
// allow defaults (line start offsets, policy base periods) treat it as such.
type YM struct {
	Year  int
	Month int
}

// NewYM validates and builds a year-month.
func NewYM(year, month int) (YM, error) {
	ym := YM{Year: year, Month: month}
	if !ym.Valid() {
		return YM{}, fmt.Errorf("%w: year=%d month=%d", ErrInvalidPeriod, year, month)
	}
	return ym, nil
}

// ParseYM parses "YYYY-MM".
func ParseYM(value string) (YM, error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return YM{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YM{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return YM{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return NewYM(year, month)
}

// YMFromKey converts an integer yyyymm period key back to a year-month.
func YMFromKey(key int) (YM, error) {
	return NewYM(key/100, key%100)
}

// Valid reports whether the year-month is a real calendar month.
func (p YM) Valid() bool {
	return p.Year >= 1900 && p.Year <= 3000 && p.Month >= 1 && p.Month <= 12
}

// IsZero reports whether the year-month is unset.
func (p YM) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// AddMonths returns the year-month n months after p (n may be negative).
func (p YM) AddMonths(n int) YM {
	total := p.Year*12 + (p.Month - 1) + n
	return YM{Year: total / 12, Month: total%12 + 1}
}

// MonthsSince returns the signed month distance from other to p.
func (p YM) MonthsSince(other YM) int {
	return (p.Year*12 + p.Month) - (other.Year*12 + other.Month)
}

// Before reports whether p is strictly earlier than other.
func (p YM) Before(other YM) bool { return p.Key() < other.Key() }

// After reports whether p is strictly later than other.
func (p YM) After(other YM) bool { return p.Key() > other.Key() }

// Key returns the integer yyyymm period key used for fact persistence.
func (p YM) Key() int { return p.Year*100 + p.Month }

// Quarter returns the calendar quarter 1..4.
func (p YM) Quarter() int { return (p.Month-1)/3 + 1 }

// QuarterEnd returns the last month of p's quarter (03/06/09/12).
func (p YM) QuarterEnd() YM { return YM{Year: p.Year, Month: p.Quarter() * 3} }

// YearEnd returns month 12 of p's year.
func (p YM) YearEnd() YM { return YM{Year: p.Year, Month: 12} }

// String formats the year-month as "YYYY-MM".
func (p YM) String() string { return fmt.Sprintf("%04d-%02d", p.Year, p.Month) }
