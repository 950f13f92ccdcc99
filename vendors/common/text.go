package common

import (
	"regexp"
	"strings"
)

// ansiRegex matches ANSI escape sequences (colors, cursor movement, etc.)
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape codes from a string.
// Useful for parsing CLI output that may contain terminal formatting.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// header columns are separated by at least two spaces ("Admin State  OMCC State")
var columnGap = regexp.MustCompile(`\s{2,}`)

// ParseTable parses a fixed-width CLI table: a header line, a dashed separator,
// then one row per line. The header line is the first line whose first column
// equals firstColumn. Rows are returned as column name -> value.
//
// Rows are split on whitespace when the field count matches the header, and by
// header offsets otherwise, so values containing single spaces still land in
// the right column.
func ParseTable(output, firstColumn string) []map[string]string {
	lines := strings.Split(strings.ReplaceAll(StripANSI(output), "\r", ""), "\n")

	var headers []string
	var offsets []int
	var rows []map[string]string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if headers == nil {
			if !strings.HasPrefix(trimmed, firstColumn) {
				continue
			}
			headers, offsets = splitHeader(line)
			continue
		}

		if strings.Trim(trimmed, "- ") == "" {
			continue
		}
		// trailers such as "ONU Number: 2/2" end the table
		if strings.Contains(trimmed, ":") && !strings.ContainsAny(strings.Fields(trimmed)[0], "/") {
			break
		}

		rows = append(rows, splitRow(line, headers, offsets))
	}

	return rows
}

func splitHeader(line string) ([]string, []int) {
	var headers []string
	var offsets []int
	start := 0
	for _, gap := range columnGap.FindAllStringIndex(line, -1) {
		seg := line[start:gap[0]]
		if name := strings.TrimSpace(seg); name != "" {
			headers = append(headers, name)
			offsets = append(offsets, start+len(seg)-len(strings.TrimLeft(seg, " \t")))
		}
		start = gap[1]
	}
	if name := strings.TrimSpace(line[start:]); name != "" {
		headers = append(headers, name)
		offsets = append(offsets, start)
	}
	return headers, offsets
}

func splitRow(line string, headers []string, offsets []int) map[string]string {
	row := make(map[string]string, len(headers))

	if fields := strings.Fields(line); len(fields) == len(headers) {
		for i, h := range headers {
			row[h] = fields[i]
		}
		return row
	}

	for i, h := range headers {
		start := offsets[i]
		if start >= len(line) {
			row[h] = ""
			continue
		}
		end := len(line)
		if i+1 < len(offsets) && offsets[i+1] < end {
			end = offsets[i+1]
		}
		row[h] = strings.TrimSpace(line[start:end])
	}
	return row
}

// ParseKeyValues parses "Key:   value" lines into a map. Keys are trimmed;
// lines without a colon are ignored and the first occurrence of a key wins.
func ParseKeyValues(output string) map[string]string {
	values := make(map[string]string)
	for _, line := range strings.Split(strings.ReplaceAll(StripANSI(output), "\r", ""), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, seen := values[key]; seen {
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	return values
}
