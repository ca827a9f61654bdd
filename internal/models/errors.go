package models

import "fmt"

// UnsupportedFormatError indicates an uploaded file whose extension is
// outside the recognized set. Fatal to the current upload attempt and
// never retried.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported file format"
	}
	return fmt.Sprintf("unsupported file format: %s", e.Extension)
}

// IngestionError wraps a failure inside an extraction library.
type IngestionError struct {
	Format string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to extract %s content: %v", e.Format, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// RemoteCallError wraps a network, auth, or response-shape failure on
// an analysis or chat call to the inference service.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }
