package model

import "errors"

var (
	// ErrEmptySeries means no usable rows remained after cleaning.
	ErrEmptySeries = errors.New("empty series")
	// ErrInsufficientHistory means fewer than MinRows rows remained after cleaning.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUnknownPayload means a raw payload matched none of the accepted shapes.
	ErrUnknownPayload = errors.New("unknown payload shape")
	// ErrUnknownLookback means a lookback key outside the fixed enumeration.
	ErrUnknownLookback = errors.New("unknown lookback")
)

// MinRows is the minimum number of cleaned rows needed for indicator warm-up.
const MinRows = 10

// NotEnoughDataMsg is the user-facing text for EmptySeries and InsufficientHistory.
const NotEnoughDataMsg = "not enough data yet"

// IsNotEnoughData reports whether err is one of the two "not enough data" conditions.
func IsNotEnoughData(err error) bool {
	return errors.Is(err, ErrEmptySeries) || errors.Is(err, ErrInsufficientHistory)
}
