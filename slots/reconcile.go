package slots

import (
	"github.com/nanoncore/onuwatch/types"
)

// Capacity is the number of ONU slots on one PON.
const Capacity = types.SlotCapacity

// Row is one slot of the dense PON view.
type Row struct {
	// SlotID is the ONU id this row stands for (1..capacity)
	SlotID int

	// Occupied is true when a device in the snapshot reports this id
	Occupied bool

	// Device is the reporting ONU, nil when unoccupied
	Device *types.Device

	// DisplayStatus is the device status, or StatusEmpty for unoccupied slots
	DisplayStatus string
}

// Reconcile expands a sparse snapshot into Capacity rows, one per slot id.
func Reconcile(devices []types.Device) []Row {
	return ReconcileCapacity(devices, Capacity)
}

// ReconcileCapacity expands a sparse snapshot into capacity rows with slot ids
// 1..capacity in ascending order. Devices with ids outside that range are ignored.
// When several devices share an id the first one in input order wins.
func ReconcileCapacity(devices []types.Device, capacity int) []Row {
	if capacity < 0 {
		capacity = 0
	}
	rows := make([]Row, capacity)
	for i := range rows {
		rows[i] = Row{SlotID: i + 1, DisplayStatus: StatusEmpty}
	}

	for i := range devices {
		id := devices[i].OnuID
		if id < 1 || id > capacity {
			continue
		}
		row := &rows[id-1]
		if row.Occupied {
			continue
		}
		d := devices[i]
		row.Occupied = true
		row.Device = &d
		row.DisplayStatus = displayStatus(d.Status)
	}

	return rows
}

// Empty is reserved for unoccupied slots, and a blank label has nothing to show.
func displayStatus(status string) string {
	if status == "" || status == StatusEmpty {
		return StatusUnknown
	}
	return status
}

// Duplicates returns the ids reported by more than one device, in order of
// their second appearance.
func Duplicates(devices []types.Device) []int {
	seen := make(map[int]int, len(devices))
	var dups []int
	for _, d := range devices {
		seen[d.OnuID]++
		if seen[d.OnuID] == 2 {
			dups = append(dups, d.OnuID)
		}
	}
	return dups
}
