package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRunID is the scrape run ID
	FieldRunID = "run_id"

	// FieldQueryID is the scrape query ID
	FieldQueryID = "query_id"

	// FieldPostingID is the job posting ID
	FieldPostingID = "posting_id"

	// FieldSnapshotID is the provider snapshot handle
	FieldSnapshotID = "snapshot_id"

	// FieldRequestID is the HTTP request ID
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldPlatform is the source platform (linkedin, indeed, ...)
	FieldPlatform = "platform"
)

// Standard metric fields, used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
