package extract

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the input carries none of URL, HTML or
// text, or more than one of them.
var ErrInvalidInput = errors.New("exactly one of url, html or text must be provided")

// FetchError reports a failed URL fetch. StatusCode is zero when the
// request never produced a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
