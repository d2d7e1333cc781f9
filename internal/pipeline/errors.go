package pipeline

import (
	"errors"
	"fmt"
)

// TerminalKind enumerates the non-DONE terminal states of the per-posting
// state machine. Each increments its own sweep counter; none is fatal.
type TerminalKind string

const (
	SkippedDuplicate TerminalKind = "skipped_dup"
	SkippedThin      TerminalKind = "skipped_thin"
	FilteredAgency   TerminalKind = "filtered_agency"
	ClassifyError    TerminalKind = "classify_error"
	TransportError   TerminalKind = "transport_error"
	UpsertError      TerminalKind = "upsert_error"
)

// PostingError is the terminal outcome of one posting that did not reach DONE
type PostingError struct {
	Kind       TerminalKind
	PostingURL string
	Err        error
}

func (e *PostingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.PostingURL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.PostingURL)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}

// Terminal extracts the terminal kind from a posting error
func Terminal(err error) (TerminalKind, bool) {
	var perr *PostingError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return "", false
}
