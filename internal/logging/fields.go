package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags a record with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies a single daemon process lifetime.
	FieldRunID = "run_id"
	// FieldSocket is the endpoint socket path.
	FieldSocket = "socket"
	// FieldState is the coordinator state name.
	FieldState = "state"
	// FieldCode carries an RPC status or native return code.
	FieldCode = "code"
)
