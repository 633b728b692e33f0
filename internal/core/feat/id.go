package feat

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateID builds a feat id of the form F-<slug>-<counter>, zero padding
// the counter to three digits to match the worked examples in the spec
// (F-demo-feat-001). currentMax is the highest counter already used for
// this slug; pass 0 for the first feat under a slug.
func GenerateID(slug string, currentMax int) string {
	return fmt.Sprintf("F-%s-%03d", slug, currentMax+1)
}

// ParseIDCounter extracts the numeric suffix from a feat id sharing the
// given slug. Returns -1 if id does not belong to slug or is malformed.
func ParseIDCounter(id, slug string) int {
	prefix := "F-" + slug + "-"
	if !strings.HasPrefix(id, prefix) {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil {
		return -1
	}
	return n
}
