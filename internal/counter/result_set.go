package counter

import (
	"slices"
	"time"

	"github.com/byteowlz/lstcnt/internal/extractor"
	"github.com/byteowlz/lstcnt/internal/registry"
)

// State is the lifecycle position of one source within a run.
type State string

const (
	StatePending     State = "pending"
	StateFetching    State = "fetching"
	StateFetched     State = "fetched"
	StateExtracted   State = "extracted"
	StateFetchFailed State = "fetch_failed"
	StateSkipped     State = "skipped"
)

// Entry is the outcome for one source.
type Entry struct {
	Source   registry.Source
	Result   extractor.Result
	State    State
	UsedJS   bool
	Duration time.Duration
}

// ResultSet holds one entry per source in the order the sources were given.
type ResultSet struct {
	entries []Entry
	index   map[string]int
}

// NewResultSet indexes entries by canonical site id. The first entry wins
// for duplicate ids.
func NewResultSet(entries []Entry) ResultSet {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, seen := index[e.Source.ID()]; !seen {
			index[e.Source.ID()] = i
		}
	}
	return ResultSet{entries: entries, index: index}
}

func (rs ResultSet) Len() int {
	return len(rs.entries)
}

// Entries returns a copy of the entries in source order.
func (rs ResultSet) Entries() []Entry {
	return slices.Clone(rs.entries)
}

// Get returns the result for a site identifier (URL or domain).
func (rs ResultSet) Get(id string) (extractor.Result, bool) {
	i, ok := rs.index[registry.Canonical(id)]
	if !ok {
		return extractor.Result{}, false
	}
	return rs.entries[i].Result, true
}

// Summary tallies a run. Skipped counts unsupported sources, which are
// also included in Errors.
type Summary struct {
	Sources  int
	Counted  int
	NotFound int
	Errors   int
	Skipped  int
	Total    int64
}

func (rs ResultSet) Summary() Summary {
	s := Summary{Sources: len(rs.entries)}
	for _, e := range rs.entries {
		switch e.Result.Kind {
		case extractor.ResultCount:
			s.Counted++
			s.Total += e.Result.Value
		case extractor.ResultNotFound:
			s.NotFound++
		default:
			s.Errors++
			if e.State == StateSkipped {
				s.Skipped++
			}
		}
	}
	return s
}
