package opruntime

// DiagnosticEvent describes one notable occurrence a DiagnosticSink may
// want to record: a run starting ("run_start"), finishing ("run_end" or
// "run_error"), or panicking ("run_panic"). It is a lighter-weight
// alternative to implementing the
// full Extension interface when a caller only wants to forward events to
// a metrics or tracing backend.
type DiagnosticEvent struct {
	Path   Path
	Kind   string
	Err    error
}

// DiagnosticSink receives DiagnosticEvents. Unlike Extension, a sink has
// no OnRunStart/OnRunEnd pairing to track; it simply observes a stream
// of named events.
type DiagnosticSink func(DiagnosticEvent)

// diagnosticExtension adapts a DiagnosticSink to the Extension
// interface so it can be installed via WithExtensions.
type diagnosticExtension struct {
	BaseExtension
	sink DiagnosticSink
}

// NewDiagnosticExtension wraps sink as an Extension reporting run start,
// run end, and panic events.
func NewDiagnosticExtension(sink DiagnosticSink) Extension {
	return diagnosticExtension{sink: sink}
}

func (d diagnosticExtension) OnRunStart(path Path) {
	d.sink(DiagnosticEvent{Path: path, Kind: "run_start"})
}

func (d diagnosticExtension) OnRunEnd(path Path, err error) {
	kind := "run_end"
	if err != nil {
		kind = "run_error"
	}
	d.sink(DiagnosticEvent{Path: path, Kind: kind, Err: err})
}

func (d diagnosticExtension) OnPanic(path Path, recovered any) {
	d.sink(DiagnosticEvent{Path: path, Kind: "run_panic"})
}
