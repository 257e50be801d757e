package domain

import "github.com/shopspring/decimal"

// MonthlySeries is one value per month over the scenario horizon. All money
// arithmetic stays in decimals until facts are emitted.
type MonthlySeries []decimal.Decimal

// NewMonthlySeries returns a zero-filled series of the given length.
func NewMonthlySeries(months int) MonthlySeries {
	s := make(MonthlySeries, months)
	for i := range s {
		s[i] = decimal.Zero
	}
	return s
}

// Clone returns an independent copy of the series.
func (s MonthlySeries) Clone() MonthlySeries {
	out := make(MonthlySeries, len(s))
	copy(out, s)
	return out
}

// AddAt accumulates v into month index i; out-of-range indexes are dropped.
func (s MonthlySeries) AddAt(i int, v decimal.Decimal) {
	if i < 0 || i >= len(s) {
		return
	}
	s[i] = s[i].Add(v)
}

// Add returns the pointwise sum of two equal-length series.
func (s MonthlySeries) Add(other MonthlySeries) MonthlySeries {
	out := s.Clone()
	for i := range out {
		if i < len(other) {
			out[i] = out[i].Add(other[i])
		}
	}
	return out
}

// Sub returns the pointwise difference s - other.
func (s MonthlySeries) Sub(other MonthlySeries) MonthlySeries {
	out := s.Clone()
	for i := range out {
		if i < len(other) {
			out[i] = out[i].Sub(other[i])
		}
	}
	return out
}

// Mul returns the pointwise product of two equal-length series. It is how a
// multiplier series is applied to a money series.
func (s MonthlySeries) Mul(other MonthlySeries) MonthlySeries {
	out := s.Clone()
	for i := range out {
		if i < len(other) {
			out[i] = out[i].Mul(other[i])
		}
	}
	return out
}

// Neg returns the pointwise negation.
func (s MonthlySeries) Neg() MonthlySeries {
	out := s.Clone()
	for i := range out {
		out[i] = out[i].Neg()
	}
	return out
}

// ShiftForward moves every value lag months later. Amounts shifted past the
// horizon are dropped, not carried over.
func (s MonthlySeries) ShiftForward(lag int) MonthlySeries {
	if lag <= 0 {
		return s.Clone()
	}
	out := NewMonthlySeries(len(s))
	for i, v := range s {
		out.AddAt(i+lag, v)
	}
	return out
}

// Round returns the series rounded to the given decimal places.
func (s MonthlySeries) Round(places int32) MonthlySeries {
	out := make(MonthlySeries, len(s))
	for i, v := range s {
		out[i] = v.Round(places)
	}
	return out
}

// Sum returns the total of all months.
func (s MonthlySeries) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v)
	}
	return total
}

// IsZero reports whether every month is zero.
func (s MonthlySeries) IsZero() bool {
	for _, v := range s {
		if !v.IsZero() {
			return false
		}
	}
	return true
}
