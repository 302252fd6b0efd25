package sink

import "fmt"

// StoreWriteError reports a repository failure while appending to Table.
// Copied is the number of rows the store had accepted in the session before
// it failed; the session is rolled back, so none of them are kept.
type StoreWriteError struct {
	Table  string
	Copied int64
	Err    error
}

func (e *StoreWriteError) Error() string {
	if e.Copied > 0 {
		return fmt.Sprintf("write %s (rolled back %d rows): %v", e.Table, e.Copied, e.Err)
	}
	return fmt.Sprintf("write %s: %v", e.Table, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
