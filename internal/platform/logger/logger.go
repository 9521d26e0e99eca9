package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger is a key/value logger over zap. Values are passed through a
// redactor before they reach the encoder.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        *redactor
}

type options struct {
	redaction bool
	hashSalt  string
}

type Option func(*options)

// WithRedaction toggles credential redaction and id hashing. On by default.
func WithRedaction(on bool) Option {
	return func(o *options) { o.redaction = on }
}

// WithHashSalt salts hashed identifiers so they cannot be joined across
// deployments.
func WithHashSalt(salt string) Option {
	return func(o *options) { o.hashSalt = strings.TrimSpace(salt) }
}

// New builds a logger for mode: "production" logs JSON at info, "test" logs
// warnings only, anything else is the debug console config.
func New(mode string, opts ...Option) (*Logger, error) {
	o := options{redaction: true}
	for _, opt := range opts {
		opt(&o)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar(), redact: newRedactor(o)}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: newRedactor(options{redaction: true})}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.SugaredLogger.Debugw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.SugaredLogger.Infow(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.SugaredLogger.Warnw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.SugaredLogger.Errorw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...any) {
	l.SugaredLogger.Fatalw(msg, l.redact.kvs(keysAndValues)...)
}

// With returns a child logger carrying keysAndValues on every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.redact.kvs(keysAndValues)...),
		redact:        l.redact,
	}
}
