package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the pipeline call chain.
const (
	// FieldRunID is the generation run ID (UUID), one per CLI invocation.
	FieldRunID = "run_id"

	// FieldMemeIndex is the 1-based index of the meme within a run.
	FieldMemeIndex = "meme_index"

	// FieldStage is the pipeline stage name.
	FieldStage = "stage"

	// FieldComponent is the component/module name.
	FieldComponent = "component"
)

// Standard metric fields recorded on individual entries.
const (
	// FieldAttempt is the 1-based attempt number within a retry budget.
	FieldAttempt = "attempt"

	// FieldModel is the model identifier used for an API call.
	FieldModel = "model"

	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldSize is the data size in bytes.
	FieldSize = "size"

	// FieldPath is a filesystem path produced by the run.
	FieldPath = "path"
)
