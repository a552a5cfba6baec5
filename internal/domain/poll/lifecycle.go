package poll

import (
	"errors"
	"time"
)

// DefaultReportThreshold is the number of distinct reporters that closes a poll.
const DefaultReportThreshold = 2

var (
	ErrNotStarted       = errors.New("poll has not started yet")
	ErrExpired          = errors.New("poll has expired")
	ErrSuspended        = errors.New("poll is suspended")
	ErrAlreadyReported  = errors.New("user already reported this poll")
	ErrInvalidThreshold = errors.New("report threshold must be positive")
)

// Admit reports whether p accepts votes at now.
func Admit(p *Poll, now time.Time) error {
	switch {
	case now.Before(p.StartDate):
		return ErrNotStarted
	case now.After(p.ExpirationDate):
		return ErrExpired
	case !p.IsActive:
		return ErrSuspended
	}
	return nil
}

// StatusAt derives the listing status of p.
func StatusAt(p *Poll, now time.Time) Status {
	if !p.IsActive || now.After(p.ExpirationDate) {
		return StatusExpired
	}
	if now.Before(p.StartDate) {
		return StatusUpcoming
	}
	return StatusActive
}

// ApplyReport adds reporterID to p. Once threshold distinct reporters are reached
// an active poll is closed immediately: isActive drops to false and the
// expiration is frozen at now. Closed polls are never reopened.
func ApplyReport(p *Poll, reporterID int64, now time.Time, threshold int) (suspended bool, err error) {
	if threshold < 1 {
		return false, ErrInvalidThreshold
	}
	if p.ReportedByUser(reporterID) {
		return false, ErrAlreadyReported
	}
	p.ReportedBy = append(p.ReportedBy, reporterID)
	p.ReportCount++

	if p.IsActive && p.ReportCount >= threshold {
		p.IsActive = false
		p.ExpirationDate = now
		return true, nil
	}
	return false, nil
}

// ChangesWithin lists the transitions of p that happen in (from, to].
func ChangesWithin(p Poll, from, to time.Time) []StateChange {
	if !p.IsActive {
		return nil
	}
	var res []StateChange
	if p.StartDate.After(from) && !p.StartDate.After(to) {
		res = append(res, StateChange{Poll: p, Transition: TransitionOpening, At: p.StartDate})
	}
	if p.ExpirationDate.After(from) && !p.ExpirationDate.After(to) {
		res = append(res, StateChange{Poll: p, Transition: TransitionClosing, At: p.ExpirationDate})
	}
	return res
}
