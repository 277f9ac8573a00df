package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CompactHandler formats logs in a compact, readable format for console output
// Format: [LEVEL] HH:MM:SS message | key=value key=value
type CompactHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex // shared by handlers derived with WithAttrs/WithGroup
	out    io.Writer
	attrs  []slog.Attr // keys already carry the group prefix
	prefix string      // dotted group path ending in "."
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	h := &CompactHandler{mu: &sync.Mutex{}, out: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

var levelLabels = map[slog.Level]string{
	LevelTrace:      "[TRACE] ",
	slog.LevelDebug: "[DEBUG] ",
	slog.LevelInfo:  "[INFO]  ",
	slog.LevelWarn:  "[WARN]  ",
	slog.LevelError: "[ERROR] ",
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if label, ok := levelLabels[r.Level]; ok {
		buf = append(buf, label...)
	} else {
		buf = fmt.Appendf(buf, "[%-5s] ", r.Level.String())
	}
	buf = r.Time.AppendFormat(buf, "15:04:05")
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	sep := " | "
	add := func(prefix string, a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		buf = append(buf, sep...)
		sep = " "
		buf = appendAttr(buf, prefix, a)
	}
	for _, a := range h.attrs {
		add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

// shortKeys maps uuid-valued keys to the label printed for their first
// eight characters.
var shortKeys = map[string]string{
	"requestID": "req",
	"compileID": "compile",
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	key := prefix + a.Key
	v := a.Value.Resolve()

	if label, ok := shortKeys[a.Key]; ok && v.Kind() == slog.KindString && len(v.String()) > 8 {
		return append(append(buf, label+"="...), v.String()[:8]...)
	}
	switch a.Key {
	case "durationMs":
		return append(append(buf, "duration="...), v.String()+"ms"...)
	case "error":
		return strconv.AppendQuote(append(buf, "error="...), fmt.Sprint(v.Any()))
	}

	buf = append(buf, key...)
	buf = append(buf, '=')
	switch v.Kind() {
	case slog.KindString:
		if s := v.String(); strings.ContainsAny(s, " \t\n\"=") {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, v.String()...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, ga := range v.Group() {
			parts = append(parts, ga.Key+":"+ga.Value.String())
		}
		return append(buf, "{"+strings.Join(parts, " ")+"}"...)
	}
	return fmt.Append(buf, v.Any())
}

func (h *CompactHandler) clone() *CompactHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return c
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix += name + "."
	return c
}
