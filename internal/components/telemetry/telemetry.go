package telemetry

import (
	"fmt"
)

// API is what components report faults, degradations, debug lines and
// gauges through. Components never log directly so that tests can assert on
// what was reported (see Recorder).
//
// note: fault injection point
type API interface {
	// ReportBroken reports a fault that needs an operator.
	//
	// `id` names the component and method that failed ("engine.fetch"), the
	// error and any context go into `params`. ids are lowercase, words in a
	// component are joined with underscores, a method is separated from
	// its component with a dot.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that was handled (a retried attempt, a
	// fallback url) but is worth looking at if it keeps happening. `id`
	// follows the rules of ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug is dropped unless verbose logging is on.
	ReportDebug(msg string, params ...any)

	// ReportCount records the current value of a gauge, values are points
	// over time and are never summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id (and debug message) with a namespace.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s:%s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
