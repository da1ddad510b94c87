package totp

import "time"

// Code is a generated one-time code together with the window it belongs to.
// It is valid for [WindowStart, WindowEnd); recomputing anywhere inside that
// window yields the same value.
type Code struct {
	Code        string
	GeneratedAt time.Time
	Period      int
}

// WindowStart returns the first instant the code is valid.
func (c Code) WindowStart() time.Time {
	p := int64(normalizePeriod(c.Period))
	return time.Unix(c.GeneratedAt.Unix()/p*p, 0)
}

// WindowEnd returns the first instant the code is no longer valid.
func (c Code) WindowEnd() time.Time {
	return c.WindowStart().Add(time.Duration(normalizePeriod(c.Period)) * time.Second)
}

// IsExpired reports whether now is at or past the end of the code's window.
func (c Code) IsExpired(now time.Time) bool {
	return !now.Before(c.WindowEnd())
}

// ExpiresIn returns the time left in the window, never negative.
func (c Code) ExpiresIn(now time.Time) time.Duration {
	return max(c.WindowEnd().Sub(now), 0)
}
