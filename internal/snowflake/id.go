// Package snowflake provides time ordered 64 bit identifiers.
package snowflake

import (
	"math/rand"
	"strconv"
	"time"
)

// An ID is a 64 bit identifier whose upper 48 bits encode the time of
// creation in milliseconds.
type ID uint64

// Now returns an ID for the current time.
func Now() ID {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to an ID.
func FromTime(ts time.Time) ID {
	// 48 bits for time in milliseconds.
	// 0 bits for worker ID.
	// 0 bits for sequence.
	// 16 bits for random.
	return ID(uint64(ts.UnixNano()/int64(time.Millisecond))<<16 | uint64(rand.Intn(1<<16)))
}

// ToTime returns the time encoded in the ID.
func (id ID) ToTime() time.Time {
	return time.Unix(0, int64(id>>16)*1e6)
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Parse converts the decimal form of an ID back to an ID.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return ID(v), err
}
