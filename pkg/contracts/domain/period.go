package domain

import (
	"fmt"
)

// Period identifies one reporting quarter
type Period struct {
	Year    int `json:"year" validate:"required,min=1900,max=9999"`
	Quarter int `json:"quarter" validate:"required,min=1,max=4"`
}

// Valid reports whether the quarter is within 1-4
func (p Period) Valid() bool {
	return p.Quarter >= 1 && p.Quarter <= 4
}

// Half returns the half-year the quarter belongs to (H1 = Q1,Q2; H2 = Q3,Q4)
func (p Period) Half() HalfYear {
	half := 1
	if p.Quarter > 2 {
		half = 2
	}
	return HalfYear{Year: p.Year, Half: half}
}

// Before reports whether p is chronologically earlier than other
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Quarter < other.Quarter
}

func (p Period) String() string {
	return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
}

// HalfYear identifies one half-year reporting cycle
type HalfYear struct {
	Year int `json:"year"`
	Half int `json:"half" validate:"min=1,max=2"`
}

// Before reports whether h is chronologically earlier than other
func (h HalfYear) Before(other HalfYear) bool {
	if h.Year != other.Year {
		return h.Year < other.Year
	}
	return h.Half < other.Half
}

// Quarters returns the two quarter numbers covered by the half
func (h HalfYear) Quarters() [2]int {
	if h.Half == 2 {
		return [2]int{3, 4}
	}
	return [2]int{1, 2}
}

// String renders the half as "2024-H1"
func (h HalfYear) String() string {
	return fmt.Sprintf("%d-H%d", h.Year, h.Half)
}

// Cycle renders the Target Reporting Cycle cell value, e.g. "2024H1"
func (h HalfYear) Cycle() string {
	return fmt.Sprintf("%dH%d", h.Year, h.Half)
}
