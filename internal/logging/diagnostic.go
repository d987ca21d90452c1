package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shipmanifest/extension/internal/queue"
)

// DefaultDiagnosticLimit is used when no limit is configured.
const DefaultDiagnosticLimit = 1000

// Entry is one record in the diagnostic log.
type Entry struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
}

func (e Entry) String() string {
	return e.Level.String() + ": " + e.Message
}

// DiagnosticLog is a rolling record of operational events shown to the user.
// Once more than Limit entries are held the oldest are dropped. A limit of zero
// or less keeps everything; that growth is the caller's choice.
type DiagnosticLog struct {
	entries *queue.Queue[Entry]
	now     func() time.Time
}

// NewDiagnosticLog creates a log holding at most limit entries.
func NewDiagnosticLog(limit int) *DiagnosticLog {
	return &DiagnosticLog{
		entries: queue.NewBounded[Entry](limit),
		now:     time.Now,
	}
}

// Append records an entry.
func (d *DiagnosticLog) Append(level slog.Level, message string) {
	d.entries.Push(Entry{Time: d.now(), Level: level, Message: message})
}

// Entries returns the current contents, oldest first.
func (d *DiagnosticLog) Entries() []Entry {
	return d.entries.Items()
}

// Len returns the number of held entries.
func (d *DiagnosticLog) Len() int {
	return d.entries.Len()
}

// SetLimit changes the maximum length, evicting immediately if needed.
func (d *DiagnosticLog) SetLimit(limit int) {
	d.entries.SetLimit(limit)
}

// Limit returns the configured maximum length.
func (d *DiagnosticLog) Limit() int {
	return d.entries.Limit()
}

// Clear drops all entries.
func (d *DiagnosticLog) Clear() {
	d.entries.Clear()
}

// DiagnosticHandler is a slog.Handler that appends records to a DiagnosticLog.
type DiagnosticHandler struct {
	log    *DiagnosticLog
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewDiagnosticHandler creates a handler feeding log with records at or above level.
func NewDiagnosticHandler(log *DiagnosticLog, level slog.Leveler) *DiagnosticHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &DiagnosticHandler{log: log, level: level}
}

// Enabled reports whether the level reaches the configured threshold.
func (h *DiagnosticHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats the record as "message key=value ..." and appends it.
func (h *DiagnosticHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})
	h.log.Append(r.Level, b.String())
	return nil
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value.Any())
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *DiagnosticHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	grouped := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	grouped = append(grouped, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		grouped = append(grouped, a)
	}
	return &DiagnosticHandler{log: h.log, level: h.level, attrs: grouped, groups: h.groups}
}

// WithGroup returns a handler that qualifies subsequent attribute keys with name.
func (h *DiagnosticHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &DiagnosticHandler{log: h.log, level: h.level, attrs: h.attrs, groups: groups}
}
