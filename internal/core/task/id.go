package task

import (
	"fmt"
	"strconv"
	"strings"
)

// NextID scans existing task ids of the form T-NNN and returns the next
// dense, increasing id. Ordering and collision avoidance are the sole
// responsibility of the caller holding the tasks.json mutate-lock.
func NextID(existing []string) string {
	max := 0
	for _, id := range existing {
		if n := parseNumber(id); n > max {
			max = n
		}
	}
	return fmt.Sprintf("T-%03d", max+1)
}

func parseNumber(id string) int {
	if !strings.HasPrefix(id, "T-") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, "T-"))
	if err != nil {
		return -1
	}
	return n
}
