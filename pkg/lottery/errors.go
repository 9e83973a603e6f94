// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import "errors"

var (
	ErrWrongTicketPrice  = errors.New("value must equal the ticket price")
	ErrNumberOutOfRange  = errors.New("number out of range")
	ErrInvalidRandomness = errors.New("invalid random number")

	ErrWeekClosed = errors.New("lottery has closed for this week")
	ErrWeekOpen   = errors.New("lottery has not ended yet")

	ErrDrawInProgress = errors.New("random number already requested for this week")
	ErrUnknownRequest = errors.New("unknown request id")
	ErrWeekResolved   = errors.New("week already resolved")

	ErrUnauthorized        = errors.New("unauthorized")
	ErrSponsorWalletNotSet = errors.New("sponsor wallet not set")
	ErrNotDrawn            = errors.New("winning number not drawn")
)

// IsValidationError reports whether err was caused by invalid input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrWrongTicketPrice) ||
		errors.Is(err, ErrNumberOutOfRange) ||
		errors.Is(err, ErrInvalidRandomness)
}

// IsTimingError reports whether err was caused by calling an operation in
// the wrong part of the week.
func IsTimingError(err error) bool {
	return errors.Is(err, ErrWeekClosed) || errors.Is(err, ErrWeekOpen)
}

// IsDoubleResolutionError reports whether err rejected a second draw or
// fulfillment for the same week.
func IsDoubleResolutionError(err error) bool {
	return errors.Is(err, ErrDrawInProgress) ||
		errors.Is(err, ErrUnknownRequest) ||
		errors.Is(err, ErrWeekResolved)
}
