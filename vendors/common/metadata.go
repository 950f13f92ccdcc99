package common

import (
	"strconv"
	"strings"
)

// MetadataString retrieves a backend setting from DirectoryConfig.Metadata.
// Keys are checked in order - first match wins.
func MetadataString(metadata map[string]string, keys ...string) (string, bool) {
	if metadata == nil {
		return "", false
	}
	for _, key := range keys {
		if value, ok := metadata[key]; ok {
			return value, true
		}
	}
	return "", false
}

// MetadataInt retrieves an integer setting. Values that do not parse are skipped.
func MetadataInt(metadata map[string]string, keys ...string) (int, bool) {
	if metadata == nil {
		return 0, false
	}
	for _, key := range keys {
		if valueStr, ok := metadata[key]; ok {
			if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
				return value, true
			}
		}
	}
	return 0, false
}

// MetadataStringWithDefault retrieves a string setting, or returns defaultValue.
func MetadataStringWithDefault(metadata map[string]string, defaultValue string, keys ...string) string {
	if value, ok := MetadataString(metadata, keys...); ok && value != "" {
		return value
	}
	return defaultValue
}

// MetadataIntWithDefault retrieves an integer setting, or returns defaultValue.
func MetadataIntWithDefault(metadata map[string]string, defaultValue int, keys ...string) int {
	if value, ok := MetadataInt(metadata, keys...); ok {
		return value
	}
	return defaultValue
}
