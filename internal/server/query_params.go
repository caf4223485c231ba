package server

import (
	"errors"
	"strconv"
	"strings"
)

func parseRequiredInt64(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("missing_value")
	}
	return strconv.ParseInt(trimmed, 10, 64)
}

// parseOptionalInt64 returns 0 for an absent value.
func parseOptionalInt64(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseInt(trimmed, 10, 64)
}
