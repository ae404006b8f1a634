package pipeline

import "fmt"

// Stage is one named step of the pipeline's finite-state machine. For a
// given submission the machine progresses linearly from Idle to Completed;
// Failed is reachable from every non-terminal stage and is terminal, as is
// Completed.
type Stage string

const (
	StageIdle             Stage = "Idle"
	StageUploading        Stage = "Uploading"
	StageConverting       Stage = "Converting"
	StageUploadingPreview Stage = "UploadingPreview"
	StagePreparing        Stage = "Preparing"
	StageAnalyzing        Stage = "Analyzing"
	StageCompleted        Stage = "Completed"
	StageFailed           Stage = "Failed"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindUpload            Kind = "UploadError"
	KindConversion        Kind = "ConversionError"
	KindPersistence       Kind = "PersistenceError"
	KindInference         Kind = "InferenceError"
	KindMalformedResponse Kind = "MalformedResponseError"
)

// Error is the single structured failure outcome of a submission: the stage
// that failed, the error kind, and the underlying cause. No other error
// shape crosses the pipeline boundary.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at stage %s: %v", e.Kind, e.Stage, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the human-readable failure message for callers.
func (e *Error) Message() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func fail(stage Stage, kind Kind, err error) *Error {
	return &Error{Stage: stage, Kind: kind, Err: err}
}
