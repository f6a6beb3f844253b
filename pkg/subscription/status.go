package subscription

import (
	"errors"
	"fmt"
)

// Status errors.
var (
	ErrUnknownStatus = errors.New("unknown subscription status")
)

// Status is the administrative state of a subscription.
type Status uint8

const (
	// StatusActive accepts and delivers messages.
	StatusActive Status = iota

	// StatusDisabled suspends both message flow directions.
	StatusDisabled

	// StatusSendDisabled rejects new messages but keeps delivering
	// the backlog.
	StatusSendDisabled

	// StatusReceiveDisabled accepts new messages but suspends delivery.
	StatusReceiveDisabled

	// StatusRenaming is a transitional state during an entity rename.
	StatusRenaming

	// StatusDeleting is a transitional state during entity removal.
	StatusDeleting

	// StatusCreating is a transitional state during entity creation.
	StatusCreating

	// StatusUnknown is reported by the service when the state cannot
	// be determined.
	StatusUnknown
)

// ParseStatus converts a wire literal to a Status. The match is exact
// and case sensitive; anything outside the known set is an error so a
// contract change surfaces instead of being misread as a valid state.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "Active":
		return StatusActive, nil
	case "Disabled":
		return StatusDisabled, nil
	case "SendDisabled":
		return StatusSendDisabled, nil
	case "ReceiveDisabled":
		return StatusReceiveDisabled, nil
	case "Renaming":
		return StatusRenaming, nil
	case "Deleting":
		return StatusDeleting, nil
	case "Creating":
		return StatusCreating, nil
	case "Unknown":
		return StatusUnknown, nil
	default:
		return StatusActive, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// String returns the wire literal for the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusDisabled:
		return "Disabled"
	case StatusSendDisabled:
		return "SendDisabled"
	case StatusReceiveDisabled:
		return "ReceiveDisabled"
	case StatusRenaming:
		return "Renaming"
	case StatusDeleting:
		return "Deleting"
	case StatusCreating:
		return "Creating"
	case StatusUnknown:
		return "Unknown"
	default:
		return "UNKNOWN"
	}
}
