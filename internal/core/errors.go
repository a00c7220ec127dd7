package core

import "errors"

var (
	// ErrUnknownFormat is returned for a format designator other than staff or clients.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrWorkspaceNotFound is returned when a workspace id is unknown or expired.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWorkspaceLimit is returned when the store is at capacity.
	ErrWorkspaceLimit = errors.New("workspace limit reached")

	// ErrNotReady is returned by Compare while either file is missing or
	// still being processed.
	ErrNotReady = errors.New("both files are required before comparing")

	// ErrSlotBusy is returned when a file is uploaded into a slot that is
	// still processing the previous one.
	ErrSlotBusy = errors.New("slot is busy processing")

	// ErrNoResult is returned when a result is requested before Compare ran.
	ErrNoResult = errors.New("no comparison result yet")
)
