// Package diag is the warning channel for non-fatal lens anomalies.
//
// Anything that "cannot be represented" is reported here and dropped; the
// operation carries on. Anything that "cannot be satisfied" is an error and
// never goes through this package.
//
// Records go to slog.Default() unless a logger is installed with SetLogger.
package diag

import (
	"log/slog"
	"reflect"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// Logger returns the installed logger, or slog.Default().
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// SetLogger installs l as the diagnostic sink and returns a function that
// restores the previous one. A nil l reverts to slog.Default().
func SetLogger(l *slog.Logger) (restore func()) {
	prev := logger.Swap(l)
	return func() { logger.Store(prev) }
}

// TypeName renders t as "pkgpath.Name", or t.String() for unnamed types.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// NotSerializable reports a settable field that the wire descriptor hides.
func NotSerializable(t reflect.Type, field string) {
	Logger().Warn("settable field is not serializable",
		"type", TypeName(t),
		"field", field,
	)
}

// NotSettable reports a serializable field that cannot be set on a copy.
func NotSettable(t reflect.Type, field string) {
	Logger().Warn("serializable field is not settable",
		"type", TypeName(t),
		"field", field,
	)
}

// Embedded reports an embedded field, which lenses do not flatten.
func Embedded(t reflect.Type, field string) {
	Logger().Warn("embedded field is not supported",
		"type", TypeName(t),
		"field", field,
	)
}

// Excluded reports, at projection time, a field that exists on the type but
// is not part of its field table.
func Excluded(t reflect.Type, field, reason string) {
	Logger().Warn("field excluded from lens",
		"type", TypeName(t),
		"field", field,
		"reason", reason,
	)
}

// IgnoredKey reports a key that is not a field of t.
func IgnoredKey(t reflect.Type, key string) {
	Logger().Warn("ignored key because it is not a viable field",
		"type", TypeName(t),
		"key", key,
	)
}

// DroppedNestedUpdate reports a nested partial update that had no existing
// value to apply to.
func DroppedNestedUpdate(t reflect.Type, field string) {
	Logger().Debug("dropped nested update on nil field",
		"type", TypeName(t),
		"field", field,
	)
}
