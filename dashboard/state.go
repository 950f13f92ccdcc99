// Package dashboard holds the selection and filter state of the ONU slot view
// and recomputes the visible rows whenever that state or the snapshot changes.
package dashboard

import (
	"errors"
	"fmt"

	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
)

var (
	ErrBoardOutOfRange     = errors.New("board out of range")
	ErrPONOutOfRange       = errors.New("pon out of range")
	ErrUnknownStatusFilter = errors.New("unknown status filter")
)

// FilterState is the selection and filter input of the view.
type FilterState struct {
	Board        int
	PON          int
	Search       string
	StatusFilter string
}

// Options bounds what the view accepts.
type Options struct {
	// BoardCount is the number of selectable boards (1..BoardCount)
	BoardCount int

	// PONCount is the number of selectable PON ports per board (1..PONCount)
	PONCount int

	// Capacity is the number of ONU slots per PON
	Capacity int

	// Board and PON are the initial selection
	Board int
	PON   int
}

// DefaultOptions matches a C320 chassis with four GPON boards.
func DefaultOptions() Options {
	return Options{
		BoardCount: 4,
		PONCount:   20,
		Capacity:   slots.Capacity,
		Board:      1,
		PON:        1,
	}
}

// Validate checks the options are usable.
func (o Options) Validate() error {
	if o.BoardCount < 1 || o.BoardCount > types.MaxBoard {
		return fmt.Errorf("board count must be between 1 and %d", types.MaxBoard)
	}
	if o.PONCount < 1 || o.PONCount > types.MaxPON {
		return fmt.Errorf("pon count must be between 1 and %d", types.MaxPON)
	}
	if o.Capacity < 1 || o.Capacity > types.SlotCapacity {
		return fmt.Errorf("capacity must be between 1 and %d", types.SlotCapacity)
	}
	if o.Board < 1 || o.Board > o.BoardCount {
		return fmt.Errorf("%w: %d", ErrBoardOutOfRange, o.Board)
	}
	if o.PON < 1 || o.PON > o.PONCount {
		return fmt.Errorf("%w: %d", ErrPONOutOfRange, o.PON)
	}
	return nil
}

// FetchTicket identifies one snapshot request. Only the ticket of the most
// recent request is applied.
type FetchTicket struct {
	Generation uint64
	Board      int
	PON        int
}

// Counts summarizes the reconciled, unfiltered view.
type Counts struct {
	Occupied int
	Online   int
	Weak     int
	Empty    int
}
