package common

import (
	"fmt"
	"time"
)

// Duration is time.Duration with text unmarshaling, so config files can
// say "90s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %s", parsed)
	}

	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard type for arithmetic and comparison.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
