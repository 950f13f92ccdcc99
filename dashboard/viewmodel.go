package dashboard

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
)

// DetailTicket identifies one detail request.
type DetailTicket struct {
	Seq   uint64
	Board int
	PON   int
	OnuID int
}

// ViewModel owns the filter state, the latest snapshot and the current detail.
// It is not safe for concurrent use; the rendering loop is its only caller.
type ViewModel struct {
	opts  Options
	state FilterState

	snapshot []types.Device
	rows     []slots.Row // reconciled, unfiltered
	visible  []slots.Row

	loading    bool
	generation uint64

	detail    *types.DeviceDetail
	detailSeq uint64

	log zerolog.Logger
}

// NewViewModel creates a view on the initial board/PON with an empty snapshot.
func NewViewModel(opts Options, log logger.Logger) (*ViewModel, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dashboard options: %w", err)
	}
	if log == nil {
		log = logger.NewTestLogger()
	}

	vm := &ViewModel{
		opts: opts,
		state: FilterState{
			Board:        opts.Board,
			PON:          opts.PON,
			StatusFilter: slots.FilterAll,
		},
		log: log.WithComponent("dashboard"),
	}
	vm.recompute()
	return vm, nil
}

// Options returns the bounds the view was created with.
func (vm *ViewModel) Options() Options {
	return vm.opts
}

// SetBoard selects a board and starts a fetch for it.
func (vm *ViewModel) SetBoard(board int) (FetchTicket, error) {
	if board < 1 || board > vm.opts.BoardCount {
		return FetchTicket{}, fmt.Errorf("%w: %d (1..%d)", ErrBoardOutOfRange, board, vm.opts.BoardCount)
	}
	vm.state.Board = board
	return vm.Refresh(), nil
}

// SetPON selects a PON port and starts a fetch for it.
func (vm *ViewModel) SetPON(pon int) (FetchTicket, error) {
	if pon < 1 || pon > vm.opts.PONCount {
		return FetchTicket{}, fmt.Errorf("%w: %d (1..%d)", ErrPONOutOfRange, pon, vm.opts.PONCount)
	}
	vm.state.PON = pon
	return vm.Refresh(), nil
}

// Refresh starts a fetch for the current selection. Any fetch still in
// flight becomes stale.
func (vm *ViewModel) Refresh() FetchTicket {
	vm.generation++
	vm.loading = true
	vm.recompute()
	return FetchTicket{
		Generation: vm.generation,
		Board:      vm.state.Board,
		PON:        vm.state.PON,
	}
}

// ApplySnapshot stores the result of a fetch. It returns false and changes
// nothing when the ticket is stale. A failed fetch shows an empty PON.
func (vm *ViewModel) ApplySnapshot(ticket FetchTicket, devices []types.Device, err error) bool {
	if ticket.Generation != vm.generation {
		vm.log.Debug().
			Uint64("generation", ticket.Generation).
			Uint64("current", vm.generation).
			Msg("Dropping stale snapshot")
		return false
	}

	if err != nil {
		vm.log.Warn().Err(err).
			Int("board", ticket.Board).
			Int("pon", ticket.PON).
			Msg("Snapshot fetch failed")
		vm.snapshot = nil
	} else {
		vm.snapshot = append([]types.Device(nil), devices...)
		if dups := slots.Duplicates(devices); len(dups) > 0 {
			vm.log.Warn().
				Int("board", ticket.Board).
				Int("pon", ticket.PON).
				Ints("onu_ids", dups).
				Msg("Snapshot reports duplicate ONU ids")
		}
	}

	vm.loading = false
	vm.recompute()
	return true
}

// SetSearch changes the free-text search.
func (vm *ViewModel) SetSearch(search string) {
	vm.state.Search = search
	vm.recompute()
}

// SetStatusFilter changes the status filter. Only values from slots.StatusFilters are accepted.
func (vm *ViewModel) SetStatusFilter(status string) error {
	if !slots.IsStatusFilter(status) {
		return fmt.Errorf("%w: %q", ErrUnknownStatusFilter, status)
	}
	vm.state.StatusFilter = status
	vm.recompute()
	return nil
}

// RequestDetail marks onuID as the detail to show next. Responses for any
// earlier request are dropped.
func (vm *ViewModel) RequestDetail(onuID int) DetailTicket {
	vm.detailSeq++
	return DetailTicket{
		Seq:   vm.detailSeq,
		Board: vm.state.Board,
		PON:   vm.state.PON,
		OnuID: onuID,
	}
}

// ShowDetail stores a fetched detail. A response that is not for the latest
// request, or that failed, leaves the detail unset.
func (vm *ViewModel) ShowDetail(ticket DetailTicket, detail *types.DeviceDetail, err error) bool {
	if ticket.Seq != vm.detailSeq {
		return false
	}
	if err != nil {
		vm.log.Warn().Err(err).
			Int("board", ticket.Board).
			Int("pon", ticket.PON).
			Int("onu_id", ticket.OnuID).
			Msg("Detail fetch failed")
		return false
	}
	if detail == nil {
		return false
	}
	vm.detail = detail
	return true
}

// DismissDetail clears the detail and abandons any request in flight.
func (vm *ViewModel) DismissDetail() {
	vm.detail = nil
	vm.detailSeq++
}

// Detail returns the detail on display, or nil.
func (vm *ViewModel) Detail() *types.DeviceDetail {
	return vm.detail
}

// Rows returns the visible rows in slot order.
func (vm *ViewModel) Rows() []slots.Row {
	return append([]slots.Row(nil), vm.visible...)
}

// AllRows returns every reconciled row, ignoring search and status filter.
func (vm *ViewModel) AllRows() []slots.Row {
	return append([]slots.Row(nil), vm.rows...)
}

// Loading reports whether a fetch for the current selection is in flight.
func (vm *ViewModel) Loading() bool {
	return vm.loading
}

// State returns a copy of the filter state.
func (vm *ViewModel) State() FilterState {
	return vm.state
}

// Counts summarizes the unfiltered rows.
func (vm *ViewModel) Counts() Counts {
	var c Counts
	for _, row := range vm.rows {
		if !row.Occupied {
			c.Empty++
			continue
		}
		c.Occupied++
		if row.DisplayStatus == slots.StatusOnline {
			c.Online++
		}
		if slots.Classify(row.Device.RxPower) == slots.TierWeak {
			c.Weak++
		}
	}
	return c
}

// Row returns the reconciled row for a slot id.
func (vm *ViewModel) Row(slotID int) (slots.Row, bool) {
	if slotID < 1 || slotID > len(vm.rows) {
		return slots.Row{}, false
	}
	return vm.rows[slotID-1], true
}

func (vm *ViewModel) recompute() {
	vm.rows = slots.ReconcileCapacity(vm.snapshot, vm.opts.Capacity)
	vm.visible = slots.Filter(vm.rows, vm.state.Search, vm.state.StatusFilter)
}
