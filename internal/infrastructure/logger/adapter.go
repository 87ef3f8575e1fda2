package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shop-agent/internal/application/port/output"
)

var _ output.LoggerPort = (*ZapAdapter)(nil)

// ZapAdapter backs LoggerPort with a zap sugared logger.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter builds a production JSON logger. When debug is true the
// level drops to debug and output switches to the console encoder.
func NewZapAdapter(debug bool) (*ZapAdapter, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapAdapter{sugar: l.Sugar()}, nil
}

// NewNopAdapter returns a logger that discards everything. Used in tests.
func NewNopAdapter() *ZapAdapter {
	return &ZapAdapter{sugar: zap.NewNop().Sugar()}
}

func (z *ZapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z *ZapAdapter) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z *ZapAdapter) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z *ZapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

func (z *ZapAdapter) WithField(key string, value any) output.LoggerPort {
	return &ZapAdapter{sugar: z.sugar.With(key, value)}
}

func (z *ZapAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &ZapAdapter{sugar: z.sugar.With(args...)}
}

func (z *ZapAdapter) Close() error {
	return z.sugar.Sync()
}
