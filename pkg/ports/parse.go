package ports

import (
	"fmt"
	"strconv"
	"strings"
)

// Top100Alias selects Top100 in a port list.
const Top100Alias = "top100"

const maxRange = 4096

// Parse parses a comma-separated port list. Items are single ports, ranges
// like "8000-8010", or the "top100" alias. The result is sorted and
// deduplicated.
func Parse(s string) ([]int, error) {
	var result []int

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		switch {
		case item == "":
			continue
		case strings.EqualFold(item, Top100Alias):
			result = append(result, Top100...)
		case strings.Contains(item, "-"):
			lo, hi, err := parseRange(item)
			if err != nil {
				return nil, err
			}
			for p := lo; p <= hi; p++ {
				result = append(result, p)
			}
		default:
			port, err := parsePort(item)
			if err != nil {
				return nil, err
			}
			result = append(result, port)
		}
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no valid ports specified")
	}
	return normalize(result), nil
}

func parseRange(item string) (int, int, error) {
	from, to, _ := strings.Cut(item, "-")
	lo, err := parsePort(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, err
	}
	hi, err := parsePort(strings.TrimSpace(to))
	if err != nil {
		return 0, 0, err
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("invalid port range %q", item)
	}
	if hi-lo >= maxRange {
		return 0, 0, fmt.Errorf("port range %q wider than %d ports", item, maxRange)
	}
	return lo, hi, nil
}

func parsePort(p string) (int, error) {
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", p)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return port, nil
}
