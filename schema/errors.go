package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidUser indicates an invalid user identifier.
	ErrInvalidUser = errors.New("invalid user")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrPaneNotFound indicates a requested pane is not part of the tab.
	ErrPaneNotFound = errors.New("pane not found")
	// ErrLastPane indicates an attempt to close the only pane of a tab.
	ErrLastPane = errors.New("cannot close the last pane of a tab")
	// ErrTabLimit indicates the user already has the maximum number of tabs.
	ErrTabLimit = errors.New("tab limit reached")
	// ErrNoTabs indicates no tabs exist for the user.
	ErrNoTabs = errors.New("no tabs")
	// ErrInvalidOrder indicates a tab order that is not a permutation of the open tabs.
	ErrInvalidOrder = errors.New("invalid tab order")
	// ErrInvalidDirection indicates an unknown split direction.
	ErrInvalidDirection = errors.New("invalid split direction")
	// ErrInvalidPaneType indicates an unknown pane type.
	ErrInvalidPaneType = errors.New("invalid pane type")
	// ErrInvalidTheme indicates an unsupported theme name.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrRecordNotFound indicates a stored record could not be found.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidRecord indicates a record failed validation.
	ErrInvalidRecord = errors.New("invalid record")
)
