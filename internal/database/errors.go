package database

import (
	"fmt"
	"time"

	"github.com/actionsum/activetime/internal/models"

	"github.com/pkg/errors"
)

var (
	// ErrWrite means a session or summary could not be persisted
	ErrWrite = errors.New("store write failed")
	// ErrCorrupt means the database file is unreadable
	ErrCorrupt = errors.New("store corrupt")
	// ErrInvalidSession means a session breaks the end > start, date-of-start rules
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidDate means a date argument is not YYYY-MM-DD or a range is reversed
	ErrInvalidDate = errors.New("invalid date")
)

// StoreError carries the failing operation and matches its Kind via errors.Is
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func writeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Kind: ErrWrite, Err: err}
}

// durationTolerance absorbs float rounding between Duration and the time span
const durationTolerance = time.Millisecond

func validateSession(s *models.Session) error {
	if s.AppName == "" {
		return &StoreError{Op: "append", Kind: ErrInvalidSession, Err: errors.New("empty app name")}
	}
	if !s.EndTime.After(s.StartTime) {
		return &StoreError{Op: "append", Kind: ErrInvalidSession,
			Err: fmt.Errorf("end %v not after start %v", s.EndTime, s.StartTime)}
	}

	span := s.Span()
	if s.Duration == 0 {
		s.Duration = span.Seconds()
	}
	diff := time.Duration(s.Duration*float64(time.Second)) - span
	if diff < -durationTolerance || diff > durationTolerance {
		return &StoreError{Op: "append", Kind: ErrInvalidSession,
			Err: fmt.Errorf("duration %.3fs does not match span %v", s.Duration, span)}
	}

	if s.Date == "" {
		s.Date = models.DateOf(s.StartTime)
	}
	if s.Date != models.DateOf(s.StartTime) {
		return &StoreError{Op: "append", Kind: ErrInvalidSession,
			Err: fmt.Errorf("date %s is not the date of start %v", s.Date, s.StartTime)}
	}
	if models.DateOf(s.EndTime) != s.Date && !s.EndTime.Equal(models.NextMidnight(s.StartTime)) {
		return &StoreError{Op: "append", Kind: ErrInvalidSession,
			Err: fmt.Errorf("session %v-%v spans more than one day", s.StartTime, s.EndTime)}
	}

	return nil
}

func checkDate(op, date string) error {
	if _, err := models.ParseDate(date, time.UTC); err != nil {
		return &StoreError{Op: op, Kind: ErrInvalidDate, Err: err}
	}
	return nil
}

func checkRange(op, from, to string) error {
	if err := checkDate(op, from); err != nil {
		return err
	}
	if err := checkDate(op, to); err != nil {
		return err
	}
	// YYYY-MM-DD compares lexically
	if from > to {
		return &StoreError{Op: op, Kind: ErrInvalidDate, Err: fmt.Errorf("from %s is after to %s", from, to)}
	}
	return nil
}
