// Package log carries a zap logger through context, so every layer logs
// with the fields its callers attached.
package log

import (
	"context"

	"go.uber.org/zap"
)

// ctxKey is how foreign contexts wrapping a carrier still find the logger.
type ctxKey struct{}

// carrier transports the logger in both typed and sugared form. Code that
// holds the carrier directly skips the Value walk entirely.
type carrier struct {
	context.Context

	typed *zap.Logger
	sugar *zap.SugaredLogger
}

func (c *carrier) Value(key any) any {
	if _, ours := key.(ctxKey); ours {
		return c.typed
	}
	return c.Context.Value(key)
}

func WithLogger(parent context.Context, logger *zap.Logger) context.Context {
	return &carrier{Context: parent, typed: logger, sugar: logger.Sugar()}
}

// L returns the logger carried by ctx, or the zap global when ctx has none.
func L(ctx context.Context) *zap.Logger {
	if c, ok := ctx.(*carrier); ok {
		return c.typed
	}
	if l, _ := ctx.Value(ctxKey{}).(*zap.Logger); l != nil {
		return l
	}
	return zap.L()
}

// S is the sugared form of L.
func S(ctx context.Context) *zap.SugaredLogger {
	if c, ok := ctx.(*carrier); ok {
		return c.sugar
	}
	if l, _ := ctx.Value(ctxKey{}).(*zap.Logger); l != nil {
		return l.Sugar()
	}
	return zap.S()
}

// With derives a context whose logger carries the extra fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	typed := L(ctx).With(fields...)
	return &carrier{Context: ctx, typed: typed, sugar: typed.Sugar()}
}

// SWith is With for loosely typed key-value arguments.
func SWith(ctx context.Context, kv ...interface{}) context.Context {
	sugar := S(ctx).With(kv...)
	return &carrier{Context: ctx, typed: sugar.Desugar(), sugar: sugar}
}
