package util

import (
	"fmt"
	"strings"
)

// ParseBool converts a flag or environment value to a bool.
// Accepts yes/true/t/y/1 and no/false/f/n/0, case-insensitively.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "t", "y", "1":
		return true, nil
	case "no", "false", "f", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("boolean value expected (got %q)", value)
}
