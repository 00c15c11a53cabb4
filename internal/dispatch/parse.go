package dispatch

import (
	"math"
	"strconv"
	"strings"
)

// Parse splits a line into a lower-cased command name and its arguments.
// A blank line yields an empty name.
func Parse(line string) (name string, args []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// parseOperand accepts any finite float literal.
func parseOperand(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isNumber(s string) bool {
	_, ok := parseOperand(s)
	return ok
}
