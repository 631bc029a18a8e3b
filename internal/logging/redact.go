// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package logging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// DefaultRedaction is the string substituted for redacted values.
const DefaultRedaction = "***"

// PIIFields are attribute keys and message fields masked by default.
var PIIFields = []string{"name", "email", "phone", "ssn", "password", "token"}

// fieldPattern compiles a pattern matching "field=value" for any of the
// fields, where separator terminates a value. Returns nil for no fields.
func fieldPattern(fields []string, separator string) *regexp.Regexp {
	if len(fields) == 0 {
		return nil
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(fmt.Sprintf(`(%s)=[^%s]*`, strings.Join(quoted, "|"), regexp.QuoteMeta(separator)))
}

// FilterFields masks the values of the named fields inside a "k=v"-delimited
// message. separator is the character that terminates each field value.
func FilterFields(fields []string, redaction, message, separator string) string {
	re := fieldPattern(fields, separator)
	if re == nil {
		return message
	}
	return re.ReplaceAllString(message, "${1}="+redaction)
}

// redactingHandler wraps a slog.Handler, masking the values of configured
// attribute keys before delegating. Keys match at any group depth, and
// "key=value" occurrences of the same keys inside the message are masked too.
type redactingHandler struct {
	handler   slog.Handler
	fields    map[string]struct{}
	msgRe     *regexp.Regexp
	redaction string
}

// NewRedactingHandler wraps handler so that attributes with the given keys
// have their values replaced by redaction.
func NewRedactingHandler(handler slog.Handler, fields []string, redaction string) slog.Handler {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &redactingHandler{
		handler:   handler,
		fields:    set,
		msgRe:     fieldPattern(fields, " "),
		redaction: redaction,
	}
}

// Handle rewrites the record with sensitive attribute and message values
// masked.
func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := r.Message
	if h.msgRe != nil {
		msg = h.msgRe.ReplaceAllString(msg, "${1}="+h.redaction)
	}
	out := slog.NewRecord(r.Time, r.Level, msg, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, out)
}

// Enabled returns true if the level is enabled.
func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes, redacted.
func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &redactingHandler{
		handler:   h.handler.WithAttrs(redacted),
		fields:    h.fields,
		msgRe:     h.msgRe,
		redaction: h.redaction,
	}
}

// WithGroup returns a new handler with the given group.
func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{
		handler:   h.handler.WithGroup(name),
		fields:    h.fields,
		msgRe:     h.msgRe,
		redaction: h.redaction,
	}
}

func (h *redactingHandler) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, m := range members {
			redacted[i] = h.redactAttr(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	if _, sensitive := h.fields[a.Key]; sensitive {
		return slog.String(a.Key, h.redaction)
	}
	return a
}
