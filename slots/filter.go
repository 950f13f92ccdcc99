package slots

import "strings"

// Filter returns the rows to display for a search text and status filter,
// preserving order.
//
// An occupied row is kept when the search is empty or matches its name or serial
// (case-insensitive substring), and statusFilter is FilterAll or its status.
// An unoccupied row is kept only while the search is empty and statusFilter is
// FilterAll or StatusEmpty.
func Filter(rows []Row, search, statusFilter string) []Row {
	needle := strings.ToLower(search)
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if match(row, needle, statusFilter) {
			out = append(out, row)
		}
	}
	return out
}

// needle is already lower case.
func match(row Row, needle, statusFilter string) bool {
	if !row.Occupied || row.Device == nil {
		return needle == "" && (statusFilter == FilterAll || statusFilter == StatusEmpty)
	}

	textMatch := needle == "" ||
		strings.Contains(strings.ToLower(row.Device.Name), needle) ||
		strings.Contains(strings.ToLower(row.Device.SerialNumber), needle)
	statusMatch := statusFilter == FilterAll || row.DisplayStatus == statusFilter

	return textMatch && statusMatch
}
