package session

import "fmt"

// TabNotFoundError indicates an operation referenced an id that is not
// open in any form. Most store operations treat a missing tab as a
// no-op; this error only crosses the boundary on operations that must
// report an outcome, like Save.
type TabNotFoundError struct {
	ID string
}

func (e *TabNotFoundError) Error() string {
	return fmt.Sprintf("tab not found: %s", e.ID)
}

// BinaryFileError indicates a path resolved to binary content; the
// store never creates a file tab for it.
type BinaryFileError struct {
	Path string
}

func (e *BinaryFileError) Error() string {
	return fmt.Sprintf("refusing to open binary file: %s", e.Path)
}

// GroupNotFoundError indicates an unknown tab group id.
type GroupNotFoundError struct {
	Group GroupID
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("tab group not found: %s", e.Group)
}

// NotAFileError indicates an operation that only applies to file tabs
// was attempted on another variant.
type NotAFileError struct {
	ID string
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("tab is not a file: %s", e.ID)
}
