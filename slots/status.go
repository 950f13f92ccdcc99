package slots

// Category is the display category of a status label.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryOnline
	CategoryOffline
	CategoryLOS
	CategoryLogging
	CategorySynchronization
	CategoryDyingGasp
	CategoryAuthFailed
	CategoryEmpty
)

// Status labels reported by the device directory.
const (
	StatusOnline          = "Online"
	StatusOffline         = "Offline"
	StatusLOS             = "LOS"
	StatusLogging         = "Logging"
	StatusSynchronization = "Synchronization"
	StatusDyingGasp       = "Dying Gasp"
	StatusAuthFailed      = "Auth Failed"
	StatusUnknown         = "Unknown"

	// StatusEmpty is reserved for unoccupied slots.
	StatusEmpty = "Empty"

	// FilterAll disables status filtering.
	FilterAll = "All"
)

var categories = map[string]Category{
	StatusOnline:          CategoryOnline,
	StatusOffline:         CategoryOffline,
	StatusLOS:             CategoryLOS,
	StatusLogging:         CategoryLogging,
	StatusSynchronization: CategorySynchronization,
	StatusDyingGasp:       CategoryDyingGasp,
	StatusAuthFailed:      CategoryAuthFailed,
	StatusUnknown:         CategoryUnknown,
	StatusEmpty:           CategoryEmpty,
}

var statusFilters = []string{
	FilterAll,
	StatusOnline,
	StatusOffline,
	StatusLOS,
	StatusLogging,
	StatusSynchronization,
	StatusDyingGasp,
	StatusAuthFailed,
	StatusUnknown,
	StatusEmpty,
}

// String returns the label the category is registered under
func (c Category) String() string {
	switch c {
	case CategoryOnline:
		return StatusOnline
	case CategoryOffline:
		return StatusOffline
	case CategoryLOS:
		return StatusLOS
	case CategoryLogging:
		return StatusLogging
	case CategorySynchronization:
		return StatusSynchronization
	case CategoryDyingGasp:
		return StatusDyingGasp
	case CategoryAuthFailed:
		return StatusAuthFailed
	case CategoryEmpty:
		return StatusEmpty
	default:
		return StatusUnknown
	}
}

// StyleFor looks up the category of a status label. Labels outside the table
// fall back to CategoryUnknown.
func StyleFor(status string) Category {
	if c, ok := categories[status]; ok {
		return c
	}
	return CategoryUnknown
}

// StyleForRow returns the category used to render a row. CategoryEmpty is only
// ever returned for unoccupied rows.
func StyleForRow(row Row) Category {
	if !row.Occupied {
		return CategoryEmpty
	}
	c := StyleFor(row.DisplayStatus)
	if c == CategoryEmpty {
		return CategoryUnknown
	}
	return c
}

// StatusFilters returns the status filter choices in display order.
func StatusFilters() []string {
	out := make([]string, len(statusFilters))
	copy(out, statusFilters)
	return out
}

// IsStatusFilter reports whether s is one of StatusFilters.
func IsStatusFilter(s string) bool {
	for _, f := range statusFilters {
		if f == s {
			return true
		}
	}
	return false
}
