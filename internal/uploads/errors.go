package uploads

import "errors"

var (
	// ErrInvalidInput is returned for a missing tenant name, file name or file body.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExtraction is returned when the upload is not a readable PDF with text.
	ErrExtraction = errors.New("extraction failed")
	// ErrSummarization is returned when the summarizer fails or returns nothing.
	ErrSummarization = errors.New("summarization failed")
	// ErrDirectory is returned when the tenant cannot be resolved or provisioned.
	ErrDirectory = errors.New("directory unavailable")
	// ErrStore is returned when the blob or the tenant record cannot be written.
	ErrStore = errors.New("store write failed")
)

// Step names the ingestion stage that failed.
type Step string

const (
	StepValidate    Step = "validate"
	StepProvision   Step = "provision"
	StepSaveBlob    Step = "save_blob"
	StepExtract     Step = "extract"
	StepSummarize   Step = "summarize"
	StepStoreRecord Step = "store_record"
)

// StepError carries the failing step, the error kind (one of the sentinels
// above) and the underlying cause. errors.Is matches both kind and cause.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return string(e.Step) + ": " + e.Kind.Error()
	}
	return string(e.Step) + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code returns the machine-readable kind.
func (e *StepError) Code() string {
	switch e.Kind {
	case ErrInvalidInput:
		return "invalid_input"
	case ErrExtraction:
		return "extraction_error"
	case ErrSummarization:
		return "summarization_error"
	case ErrDirectory:
		return "directory_error"
	case ErrStore:
		return "store_error"
	default:
		return "internal"
	}
}

func stepError(step Step, kind, err error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: err}
}
