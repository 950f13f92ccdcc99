package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Address limits accepted for board/PON selection.
const (
	SlotCapacity = 128 // ONU slots per PON
	MaxBoard     = 20
	MaxPON       = 20
)

// RegisterOLTIndex is the olt_index sent with a register command: gpon-olt_{board}/1/{pon}.
// The backend expects board and shelf swapped compared to CommandOLTIndex.
func RegisterOLTIndex(board, pon int) string {
	return fmt.Sprintf("gpon-olt_%d/1/%d", board, pon)
}

// CommandOLTIndex is the olt_index sent with reboot and remove: gpon-olt_1/{board}/{pon}.
func CommandOLTIndex(board, pon int) string {
	return fmt.Sprintf("gpon-olt_1/%d/%d", board, pon)
}

// ONUInterface is the CLI name of an ONU: gpon-onu_1/{board}/{pon}:{onu}.
func ONUInterface(board, pon, onuID int) string {
	return fmt.Sprintf("gpon-onu_1/%d/%d:%d", board, pon, onuID)
}

// ParseONUIndex parses "1/2/3:4", "gpon-onu_1/2/3:4" or "gpon-olt_1/2/3" into
// board, pon and onu id (0 when absent). The leading shelf number is ignored.
func ParseONUIndex(s string) (board, pon, onuID int, err error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "_"); i >= 0 {
		s = s[i+1:]
	}

	port := s
	if i := strings.Index(s, ":"); i >= 0 {
		port = s[:i]
		onuID, err = strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid onu id in %q: %w", s, err)
		}
	}

	parts := strings.Split(port, "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid onu index %q", s)
	}

	if board, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid board in %q: %w", s, err)
	}
	if pon, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid pon in %q: %w", s, err)
	}

	return board, pon, onuID, nil
}
