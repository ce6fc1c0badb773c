package app

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure cases every command handler has to
// distinguish. Everything else is wrapped with %w at the call site.
var (
	// ErrMissingAPIKey: no Gemini API key configured, checked before any network call.
	ErrMissingAPIKey = errors.New("gemini api key is not configured; run 'cvmatch config set apiKey <key>'")

	// ErrMissingCV: no CV text configured.
	ErrMissingCV = errors.New("cv text is not configured; run 'cvmatch config set cvText @resume.txt'")

	// ErrAuthRequired: no cached Google token for the sheet operations.
	ErrAuthRequired = errors.New("not logged in; run 'cvmatch login' first")

	// ErrNoDescription: the page yielded nothing that looks like a job posting.
	ErrNoDescription = errors.New("no usable job description found on this page")

	// ErrNoJSON: the model response contains no brace-delimited object at all.
	ErrNoJSON = errors.New("model did not return a json object")

	// ErrBusy: a request with the same fingerprint is already in flight.
	ErrBusy = errors.New("a request of this type is already in progress")
)

// RemoteError is a non-success response from a remote endpoint, carrying the
// server's own message when one was available.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}
