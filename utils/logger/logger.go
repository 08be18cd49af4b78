package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

const redacted = "[REDACTED]"

// sessionIDPrefix is how much of a session ID may appear in logs.
const sessionIDPrefix = 8

// sensitiveKeys never reach a log sink with their value.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"backend_token": {},
	"csrf_token":    {},
	"secret":        {},
	"cookie":        {},
	"authorization": {},
	"api_key":       {},
}

// Init installs the default JSON logger, tagged with the service name. With
// enableOTel set, records are also exported through the OTel log bridge.
func Init(serviceName string, enableOTel bool) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var handler slog.Handler = newStdoutHandler(level)
	if enableOTel {
		handler = &MultiHandler{handlers: []slog.Handler{handler, NewOTelHandler(level)}}
	}

	logger := slog.New(handler).With("service", serviceName)
	slog.SetDefault(logger)

	GlobalContext = NewContextLogger(logger)

	return logger
}

func newStdoutHandler(level slog.Level) slog.Handler {
	return NewTraceContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr { return Redact(a) },
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Redact masks credentials and truncates session IDs.
func Redact(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if _, ok := sensitiveKeys[key]; ok {
		return slog.String(a.Key, redacted)
	}
	if key == "session_id" && a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); len(s) > sessionIDPrefix {
			return slog.String(a.Key, s[:sessionIDPrefix])
		}
	}
	return a
}

// OTelHandler is a slog.Handler that exports logs via OpenTelemetry
type OTelHandler struct {
	logger log.Logger
	attrs  []slog.Attr
	groups []string
	level  slog.Level
}

func NewOTelHandler(level slog.Level) *OTelHandler {
	return &OTelHandler{
		logger: global.GetLoggerProvider().Logger("dojo-hub/slog"),
		level:  level,
	}
}

func (h *OTelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *OTelHandler) Handle(ctx context.Context, r slog.Record) error {
	var rec log.Record
	rec.SetTimestamp(r.Time)
	rec.SetBody(log.StringValue(r.Message))
	rec.SetSeverity(otelSeverity(r.Level))
	rec.SetSeverityText(r.Level.String())

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		rec.AddAttributes(
			log.String("trace_id", sc.TraceID().String()),
			log.String("span_id", sc.SpanID().String()),
		)
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		rec.AddAttributes(log.String(string(RequestIDKey), requestID))
	}

	for _, attr := range h.attrs {
		rec.AddAttributes(otelKeyValue(h.groups, attr))
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttributes(otelKeyValue(h.groups, a))
		return true
	})

	h.logger.Emit(ctx, rec)
	return nil
}

func (h *OTelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *OTelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func otelSeverity(level slog.Level) log.Severity {
	switch {
	case level >= slog.LevelError:
		return log.SeverityError
	case level >= slog.LevelWarn:
		return log.SeverityWarn
	case level >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

// otelKeyValue converts a slog attribute, prefixing its key with the open
// groups. Durations are exported in milliseconds under a "_ms" key.
func otelKeyValue(groups []string, a slog.Attr) log.KeyValue {
	a = Redact(a)
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return log.String(key, v.String())
	case slog.KindInt64:
		return log.Int64(key, v.Int64())
	case slog.KindUint64:
		return log.Int64(key, int64(v.Uint64()))
	case slog.KindFloat64:
		return log.Float64(key, v.Float64())
	case slog.KindBool:
		return log.Bool(key, v.Bool())
	case slog.KindDuration:
		return log.Int64(key+"_ms", v.Duration().Milliseconds())
	case slog.KindTime:
		return log.String(key, v.Time().Format(time.RFC3339Nano))
	default:
		return log.String(key, v.String())
	}
}

// MultiHandler fans records out to every handler that accepts the level.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler writes JSON to stdout and exports through the OTel bridge.
func NewMultiHandler(level slog.Level) *MultiHandler {
	return &MultiHandler{handlers: []slog.Handler{newStdoutHandler(level), NewOTelHandler(level)}}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *MultiHandler) each(fn func(slog.Handler) slog.Handler) *MultiHandler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = fn(handler)
	}
	return &MultiHandler{handlers: next}
}
