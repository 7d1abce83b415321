package model

import (
	"errors"
	"fmt"
)

type ImportErrorKind string

const (
	// fatal for a batch's fetch stage
	FeedFetchFailed ImportErrorKind = "FeedFetchFailed"
	// post is kept without media
	MediaFetchFailed ImportErrorKind = "MediaFetchFailed"
	// only the failing media item is skipped
	MediaDownloadFailed ImportErrorKind = "MediaDownloadFailed"
	// item fails, batch continues
	StorageFailed ImportErrorKind = "StorageFailed"
	// logged, the fetch continues unauthenticated
	AuthFailed ImportErrorKind = "AuthFailed"
)

// ImportError tags an error with the pipeline stage it came from. Subject is
// what failed: a handle, an url, an external id.
type ImportError struct {
	Kind    ImportErrorKind
	Subject string
	Err     error
}

func NewImportError(kind ImportErrorKind, subject string, err error) *ImportError {
	return &ImportError{Kind: kind, Subject: subject, Err: err}
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, e.Err.Error())
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// IsImportErrorKind returns true if any error in err's chain is an
// ImportError of the given kind.
func IsImportErrorKind(err error, kind ImportErrorKind) bool {
	var importErr *ImportError
	if !errors.As(err, &importErr) {
		return false
	}
	if importErr.Kind == kind {
		return true
	}
	return IsImportErrorKind(importErr.Err, kind)
}
