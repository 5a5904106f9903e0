package assistant

import "strings"

// similarityThreshold is the token-overlap ratio above which two replies
// count as repeats.
const similarityThreshold = 0.7

// recentResponses is a fixed-capacity FIFO of replies already given.
type recentResponses struct {
	capacity int
	items    []string
}

func newRecentResponses(capacity int) *recentResponses {
	if capacity < 1 {
		capacity = 1
	}
	return &recentResponses{capacity: capacity, items: make([]string, 0, capacity)}
}

func (r *recentResponses) add(resp string) {
	if len(r.items) == r.capacity {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, resp)
}

func (r *recentResponses) size() int { return len(r.items) }

func (r *recentResponses) snapshot() []string {
	return append([]string(nil), r.items...)
}

// similarToAny reports whether resp is close to any stored reply.
func (r *recentResponses) similarToAny(resp string) bool {
	for _, prev := range r.items {
		if similarity(resp, prev) > similarityThreshold {
			return true
		}
	}
	return false
}

// similarity is |tokens of a found in b| / max(|a|, |b|) over lowercase
// whitespace tokens. Repeated tokens in a are each counted.
func similarity(a, b string) float64 {
	wa := strings.Fields(strings.ToLower(a))
	wb := strings.Fields(strings.ToLower(b))
	denom := max(len(wa), len(wb))
	if denom == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		inB[w] = struct{}{}
	}
	common := 0
	for _, w := range wa {
		if _, ok := inB[w]; ok {
			common++
		}
	}
	return float64(common) / float64(denom)
}
