// Package timeutil normalizes timestamps at persistence boundaries.
// Every value written to or compared against stored state goes through
// NormalizeUTC so naive/aware mismatches cannot occur.
package timeutil

import "time"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// NormalizeUTC converts t to UTC. Zero values pass through unchanged.
func NormalizeUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// IsExpired reports whether expiresAt lies in the past.
func IsExpired(expiresAt time.Time) bool {
	return NormalizeUTC(expiresAt).Before(NowUTC())
}
