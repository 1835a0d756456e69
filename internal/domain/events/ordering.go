package events

import (
	"sort"

	"github.com/hackbox-events/server/internal/dates"
)

// SortByStartDate orders events by parsed start date, newest first. Events
// whose start date cannot be parsed keep their relative order at the end.
func SortByStartDate(list []Event) {
	type keyed struct {
		ok   bool
		unix int64
	}
	keys := make(map[string]keyed, len(list))
	for _, e := range list {
		t, ok := dates.Parse(e.StartDate)
		keys[e.ID] = keyed{ok: ok, unix: t.Unix()}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := keys[list[i].ID], keys[list[j].ID]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.unix > b.unix
	})
}
