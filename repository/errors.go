package repository

import "fmt"

// WriteError reports a failed database write. Table and Item identify what
// was being written when the failure happened.
type WriteError struct {
	Table string
	Item  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed for %q: %v", e.Table, e.Item, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
