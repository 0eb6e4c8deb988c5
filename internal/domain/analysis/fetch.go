package analysis

import (
	"errors"
	"strings"
)

// Attempt describes one provider call made while fetching a site.
type Attempt struct {
	Provider      string
	URL           string
	StatusCode    int
	ContentLength int
	Err           error
}

// FetchError is returned when every provider failed. It matches
// ErrFetchUnavailable and each attempt's cause.
type FetchError struct {
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			parts = append(parts, a.Provider+": "+a.Err.Error())
		}
	}
	if len(parts) == 0 {
		return ErrFetchUnavailable.Error()
	}
	return ErrFetchUnavailable.Error() + ": " + strings.Join(parts, "; ")
}

func (e *FetchError) Unwrap() []error {
	errs := []error{ErrFetchUnavailable}
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// AttemptsOf extracts the attempts carried by a fetch error, if any.
func AttemptsOf(err error) []Attempt {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Attempts
	}
	return nil
}
