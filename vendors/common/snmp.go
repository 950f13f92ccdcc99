package common

import (
	"fmt"
	"strconv"
	"strings"
)

// GetSNMPResult looks up an OID in SNMP results, handling the leading dot issue.
// gosnmp returns OIDs with a leading dot (e.g., ".1.3.6.1..."), but OID constants
// typically don't have the leading dot. This function tries both formats.
func GetSNMPResult(results map[string]interface{}, oid string) (interface{}, bool) {
	if results == nil {
		return nil, false
	}

	if !strings.HasPrefix(oid, ".") {
		if val, ok := results["."+oid]; ok {
			return val, true
		}
	}

	if val, ok := results[oid]; ok {
		return val, true
	}

	if strings.HasPrefix(oid, ".") {
		if val, ok := results[strings.TrimPrefix(oid, ".")]; ok {
			return val, true
		}
	}

	return nil, false
}

// SNMPSuffix returns the part of a walked OID below base, without the joining dot.
// ok is false when name is not under base.
func SNMPSuffix(name, base string) (string, bool) {
	name = strings.TrimPrefix(name, ".")
	base = strings.TrimPrefix(base, ".")
	if !strings.HasPrefix(name, base+".") {
		return "", false
	}
	return name[len(base)+1:], true
}

// ParseSNMPIndex splits an OID suffix such as "268501248.12" into integers.
func ParseSNMPIndex(suffix string) ([]int, error) {
	if suffix == "" {
		return nil, fmt.Errorf("empty OID index")
	}
	parts := strings.Split(suffix, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid OID index %q: %w", suffix, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseIntSNMPValue extracts an int64 from the numeric types gosnmp returns.
func ParseIntSNMPValue(value interface{}) (int64, bool) {
	if value == nil {
		return 0, false
	}

	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// ParseStringSNMPValue extracts a string from SNMP result.
// Handles both string and []byte types. Trailing NULs some agents pad with are dropped.
func ParseStringSNMPValue(value interface{}) (string, bool) {
	if value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return strings.TrimRight(v, "\x00"), true
	case []byte:
		return strings.TrimRight(string(v), "\x00"), true
	default:
		return "", false
	}
}
