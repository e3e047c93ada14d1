package services

import "fmt"

// FetchError reports that an external source was unreachable or returned a
// malformed response. Item is the index path or symbol being fetched.
type FetchError struct {
	Source string
	Item   string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed for %q: %v", e.Source, e.Item, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
