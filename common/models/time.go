package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Timestamps are persisted as RFC 3339 strings with an explicit UTC offset.
const timestampStorageFormat = "2006-01-02T15:04:05.999999Z07:00"

type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	// Round to microseconds so a value read back from the database compares
	// equal to the value that was written.
	return Time{Time: t.UTC().Round(time.Microsecond)}
}

func NewTimePtr(t time.Time) *Time {
	newTime := NewTime(t)
	return &newTime
}

func (s *Time) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	switch t := src.(type) {
	case time.Time:
		*s = NewTime(t)
	case string:
		parsedTime, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return errors.Wrap(err, "error parsing time")
		}
		*s = Time{Time: parsedTime.UTC()}
	case []byte:
		parsedTime, err := time.Parse(time.RFC3339Nano, string(t))
		if err != nil {
			return errors.Wrap(err, "error parsing time")
		}
		*s = Time{Time: parsedTime.UTC()}
	default:
		return fmt.Errorf("unsupported type: %[1]T (%[1]v)", src)
	}
	return nil
}

// Value converts a time into a format that can be passed to the database,
// for example in a WHERE clause of a query.
func (s Time) Value() (driver.Value, error) {
	return s.Format(timestampStorageFormat), nil
}
