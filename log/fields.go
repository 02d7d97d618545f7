package log

import (
	"net/netip"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Internal tags an entry as a code defect rather than an environment or
// configuration problem.
var Internal = zap.String("severe_error", "internal")

// stopwatch measures at encode time, so the field can be created before
// the work it times.
type stopwatch struct {
	start time.Time
	key   string
}

func (w *stopwatch) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddDuration(w.key, time.Since(w.start))
	return nil
}

func Elapsed(key string) zap.Field {
	return zap.Inline(&stopwatch{start: time.Now(), key: key})
}

// ByteField logs data as text when it is valid UTF-8, base64 otherwise.
func ByteField(key string, data []byte) zap.Field {
	if utf8.Valid(data) {
		return zap.ByteString(key, data)
	}
	return zap.Binary(key, data)
}

func IP(addr netip.Addr) zap.Field {
	return zap.Stringer("ip", addr)
}

func Stage(stage string) zap.Field {
	return zap.String("stage", stage)
}
