package dataset

import "fmt"

// IOError reports a source file that is missing, unreadable, or not valid
// delimited text. It is fatal for a run and is raised before any write.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// SchemaError reports an operation that referenced a column the dataset does
// not have, or that would leave the dataset with an invalid column set.
type SchemaError struct {
	Op     string // join, rename, drop, ...
	Column string
	Msg    string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s %q: %s", e.Op, e.Column, e.Msg)
}

func missing(op, col string) error {
	return &SchemaError{Op: op, Column: col, Msg: "no such column"}
}
