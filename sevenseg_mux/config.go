package sevenseg_mux

import (
	"time"

	"github.com/pkg/errors"
)

// flicker-free persistence limit for one full pass over every digit
const FlickerLimit = 16 * time.Millisecond

// Config holds the tunables of a multiplexed display.
type Config struct {
	Digits           int
	Order            DigitOrder
	Threshold        int64         // values above this show the error glyphs
	Settle           time.Duration // segment bus settle before the cathode is enabled
	Hold             time.Duration // how long one digit stays lit
	Tick             time.Duration // refresh scheduler granularity
	CathodeActiveLow bool
	SegmentActiveLow bool
}

// DefaultConfig is a four digit common-cathode display.
func DefaultConfig() Config {
	return Config{
		Digits:           4,
		Order:            MostSignificantFirst,
		Threshold:        150,
		Settle:           2 * time.Millisecond,
		Hold:             2 * time.Millisecond,
		Tick:             time.Millisecond,
		CathodeActiveLow: true,
		SegmentActiveLow: false,
	}
}

// FramePeriod is how long one Render takes.
func (c Config) FramePeriod() time.Duration {
	return time.Duration(c.Digits) * (c.Settle + c.Hold)
}

// Flickers reports whether a full frame is too slow to look steady.
func (c Config) Flickers() bool {
	return c.FramePeriod() > FlickerLimit
}

func (c Config) Validate() error {
	if c.Digits <= 0 {
		return errors.Errorf("digit count must be positive: %d", c.Digits)
	}
	if c.Order != MostSignificantFirst && c.Order != LeastSignificantFirst {
		return errors.Errorf("bad digit order: %d", c.Order)
	}
	if c.Threshold < 0 {
		return errors.Errorf("display threshold must not be negative: %d", c.Threshold)
	}
	if c.Settle < 0 || c.Hold < 0 {
		return errors.Errorf("delays must not be negative: settle %v, hold %v", c.Settle, c.Hold)
	}
	if c.Tick <= 0 {
		return errors.Errorf("refresh tick must be positive: %v", c.Tick)
	}
	return nil
}
