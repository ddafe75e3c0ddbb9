package reconcile

import (
	"fmt"
	"sort"
)

// Report accumulates human-readable planned changes during a dry run,
// keyed by upstream subject (or local identity for unlink candidates).
type Report struct {
	entries map[string][]string
}

func NewReport() *Report {
	return &Report{entries: make(map[string][]string)}
}

func (r *Report) Add(key, format string, args ...any) {
	if r == nil {
		return
	}
	r.entries[key] = append(r.entries[key], fmt.Sprintf(format, args...))
}

// Entries returns the report lines grouped by key, keys sorted.
func (r *Report) Entries() map[string][]string {
	if r == nil {
		return nil
	}
	return r.entries
}

// Lines flattens the report into "key: change" lines in key order.
func (r *Report) Lines() []string {
	if r == nil || len(r.entries) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var out []string
	for _, key := range keys {
		for _, line := range r.entries[key] {
			out = append(out, key+": "+line)
		}
	}
	return out
}
