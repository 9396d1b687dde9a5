package media

import (
	"fmt"
	"math/big"
	"time"
)

// Timestamp is a rational point on a capture clock: Value/Timescale seconds.
// Platforms stamp each stream in its natural timescale (90 kHz for video, the
// sample rate for audio), so arithmetic keeps the timescale of the receiver.
//
// The zero Timestamp (Timescale 0) is invalid and means "not set".
type Timestamp struct {
	Value     int64
	Timescale int32
}

// NewTimestamp converts a duration since the clock origin into the given
// timescale, truncating.
func NewTimestamp(d time.Duration, timescale int32) Timestamp {
	return Timestamp{Value: scale(d, timescale), Timescale: timescale}
}

// scale converts d to units of 1/timescale seconds without overflowing for
// clocks that have been running for a long time.
func scale(d time.Duration, timescale int32) int64 {
	sec := int64(d / time.Second)
	rem := int64(d % time.Second)
	return sec*int64(timescale) + rem*int64(timescale)/int64(time.Second)
}

// Valid reports whether t has been set.
func (t Timestamp) Valid() bool {
	return t.Timescale > 0
}

// Add returns t shifted by d, expressed in t's own timescale.
func (t Timestamp) Add(d time.Duration) Timestamp {
	if !t.Valid() {
		panic("media: Add on invalid timestamp")
	}
	return Timestamp{Value: t.Value + scale(d, t.Timescale), Timescale: t.Timescale}
}

// Compare returns -1, 0 or +1 as t is before, equal to, or after u. Both must
// be valid; timestamps in different timescales compare exactly.
func (t Timestamp) Compare(u Timestamp) int {
	if !t.Valid() || !u.Valid() {
		panic("media: Compare on invalid timestamp")
	}
	if t.Timescale == u.Timescale {
		switch {
		case t.Value < u.Value:
			return -1
		case t.Value > u.Value:
			return 1
		}
		return 0
	}
	// Cross-multiply; big.Int avoids overflow for long-running clocks.
	a := new(big.Int).Mul(big.NewInt(t.Value), big.NewInt(int64(u.Timescale)))
	b := new(big.Int).Mul(big.NewInt(u.Value), big.NewInt(int64(t.Timescale)))
	return a.Cmp(b)
}

func (t Timestamp) Before(u Timestamp) bool { return t.Compare(u) < 0 }
func (t Timestamp) After(u Timestamp) bool  { return t.Compare(u) > 0 }

// Duration converts t to a duration since the clock origin.
func (t Timestamp) Duration() time.Duration {
	if !t.Valid() {
		return 0
	}
	sec := t.Value / int64(t.Timescale)
	rem := t.Value % int64(t.Timescale)
	return time.Duration(sec)*time.Second + time.Duration(rem)*time.Second/time.Duration(t.Timescale)
}

// Sub returns the duration t-u.
func (t Timestamp) Sub(u Timestamp) time.Duration {
	return t.Duration() - u.Duration()
}

func (t Timestamp) String() string {
	if !t.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%.3fs", t.Duration().Seconds())
}
