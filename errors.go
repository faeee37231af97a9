package vlist

import (
	"errors"
	"strconv"
	"strings"
)

// Kind categorizes a failure in the list pipeline.
type Kind string

const (
	KindInvalidIndex      Kind = "invalid_index"
	KindMeasurementFailed Kind = "measurement_failed"
	KindInvalidConfig     Kind = "invalid_config"
	KindPanelOperation    Kind = "panel_operation_failed"
	KindDataSource        Kind = "data_source"
	KindRenderer          Kind = "renderer"
	KindPool              Kind = "pool"
	KindCache             Kind = "cache"
	KindLayout            Kind = "layout"
	KindResource          Kind = "resource"
)

// Error is the structured error reported by every stage of the list.
// Which fields are meaningful depends on Kind; construct values through the
// per-kind factories below.
type Error struct {
	Cause    error
	Kind     Kind
	Op       string
	Resource string
	Reason   string
	Index    int
	Total    int

	// set by Wrap: Index and Total are unknown and not shown
	noIndex bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	switch e.Kind {
	case KindInvalidIndex:
		b.WriteString("invalid index")
		if !e.noIndex {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(e.Index))
			b.WriteString(" (total items: ")
			b.WriteString(strconv.Itoa(e.Total))
			b.WriteByte(')')
		}
	case KindMeasurementFailed:
		b.WriteString("measurement failed")
		if !e.noIndex {
			b.WriteString(" for item ")
			b.WriteString(strconv.Itoa(e.Index))
		}
	case KindInvalidConfig:
		b.WriteString("invalid configuration")
	case KindPanelOperation:
		b.WriteString("panel operation '")
		b.WriteString(e.Op)
		b.WriteString("' failed")
	case KindDataSource:
		b.WriteString("data source error")
	case KindRenderer:
		b.WriteString("renderer error")
		if !e.noIndex {
			b.WriteString(" for item ")
			b.WriteString(strconv.Itoa(e.Index))
		}
		b.WriteString(" during '")
		b.WriteString(e.Op)
		b.WriteByte('\'')
	case KindPool:
		b.WriteString("pool error during '")
		b.WriteString(e.Op)
		b.WriteByte('\'')
	case KindCache:
		b.WriteString("cache error during '")
		b.WriteString(e.Op)
		b.WriteByte('\'')
	case KindLayout:
		b.WriteString("layout error during '")
		b.WriteString(e.Op)
		b.WriteByte('\'')
	case KindResource:
		b.WriteString("resource error for '")
		b.WriteString(e.Resource)
		b.WriteByte('\'')
	default:
		b.WriteString(string(e.Kind))
	}

	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Clone returns a copy of the error.
func (e *Error) Clone() *Error {
	c := *e
	return &c
}

// Fatal reports whether the error must stop the list from running.
func (e *Error) Fatal() bool {
	return e.Kind == KindInvalidConfig || e.Kind == KindResource
}

// Recoverable reports whether the error is local to one item and the list can
// keep going with a placeholder.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindInvalidIndex, KindMeasurementFailed, KindRenderer, KindDataSource, KindPanelOperation, KindLayout:
		return true
	}
	return false
}

// Defect reports whether the error indicates a broken pool or cache invariant.
func (e *Error) Defect() bool {
	return e.Kind == KindPool || e.Kind == KindCache
}

// InvalidIndex reports an index outside [0, total).
func InvalidIndex(index, total int) *Error {
	return &Error{Kind: KindInvalidIndex, Index: index, Total: total}
}

// MeasurementFailed reports that an item's extent could not be computed.
func MeasurementFailed(index int, reason string) *Error {
	return &Error{Kind: KindMeasurementFailed, Index: index, Reason: reason}
}

// InvalidConfig reports an internally inconsistent configuration value.
func InvalidConfig(message string) *Error {
	return &Error{Kind: KindInvalidConfig, Reason: message}
}

// PanelOperationFailed reports a failed container operation (create, bind,
// reset). details may be empty.
func PanelOperationFailed(op, details string) *Error {
	return &Error{Kind: KindPanelOperation, Op: op, Reason: details}
}

// DataSourceError reports that the data source could not produce a count or
// item data.
func DataSourceError(message string) *Error {
	return &Error{Kind: KindDataSource, Reason: message}
}

// RendererError reports a renderer callback failure for one item. details may
// be empty.
func RendererError(index int, op, details string) *Error {
	return &Error{Kind: KindRenderer, Index: index, Op: op, Reason: details}
}

// PoolError reports a violated pool invariant.
func PoolError(op, reason string) *Error {
	return &Error{Kind: KindPool, Op: op, Reason: reason}
}

// CacheError reports a corrupted or mishandled geometry cache entry.
func CacheError(op, reason string) *Error {
	return &Error{Kind: KindCache, Op: op, Reason: reason}
}

// LayoutError reports a failed extent or position computation.
func LayoutError(op, details string) *Error {
	return &Error{Kind: KindLayout, Op: op, Reason: details}
}

// ResourceError reports that a named resource could not be allocated.
func ResourceError(resource, reason string) *Error {
	return &Error{Kind: KindResource, Resource: resource, Reason: reason}
}

// Wrap converts a foreign error into the given kind, using op as the
// operation (or resource) name and keeping the original text as the reason.
// The message always shows both. Item indices are not known here and are left
// out. Errors that already are *Error are returned unchanged. Wrap(nil) is nil.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	var ve *Error
	if errors.As(cause, &ve) {
		return cause
	}
	e := &Error{Kind: kind, Op: op, Reason: cause.Error(), Cause: cause, noIndex: true}
	switch kind {
	case KindResource:
		e.Op = ""
		e.Resource = op
	case KindInvalidConfig, KindDataSource, KindInvalidIndex, KindMeasurementFailed:
		e.Op = ""
		e.Reason = op + ": " + cause.Error()
	}
	return e
}

// Require converts a comma-ok lookup into a value or a PanelOperationFailed
// error naming op.
func Require[V any](v V, ok bool, op string) (V, error) {
	if !ok {
		var zero V
		return zero, PanelOperationFailed(op, "value not available")
	}
	return v, nil
}

// IsKind reports whether any error in err's tree is an *Error of kind. It
// looks through wrapped and combined errors.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
