package analytics

import (
	"regexp"
	"sort"

	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// BehaviourStats groups page views, traffic sources, product events and
// room popularity.
type BehaviourStats struct {
	Routes  map[string]int `json:"routes"`
	Sources map[string]int `json:"sources"`
	Events  map[string]int `json:"events"`
	Rooms   map[string]int `json:"rooms"`
}

// sourceRule re-buckets a raw referrer into a canonical label. Rules
// are evaluated in order; the first match wins per raw value and
// anything unmatched lands in "Other".
type sourceRule struct {
	label   string
	pattern *regexp.Regexp
}

var sourceRules = []sourceRule{
	{"Teams", regexp.MustCompile(`teams\.`)},
	{"Google Ads", regexp.MustCompile(`ads\.|google_ads`)},
	{"Google Search", regexp.MustCompile(`www\.google\.com`)},
	{"Free Planning Poker", regexp.MustCompile(`free-planning-poker\.com`)},
	{"CV", regexp.MustCompile(`cv`)},
	{"Email", regexp.MustCompile(`email`)},
	{"GitHub", regexp.MustCompile(`github\.com`)},
	{"Bing", regexp.MustCompile(`bing\.com`)},
}

func calcBehaviour(snap *Snapshot) BehaviourStats {
	routes := make(map[string]int)
	rawSources := make(map[string]int)
	for _, pv := range snap.PageViews {
		routes[pv.Route]++
		if pv.Source != nil {
			rawSources[*pv.Source]++
		}
	}

	events := make(map[string]int)
	for _, ev := range snap.Events {
		events[ev.Event]++
	}

	roomNames := make(map[int64]string, len(snap.Rooms))
	for _, room := range snap.Rooms {
		roomNames[room.ID] = room.Name
	}
	roomVotes := make(map[string]int)
	for _, v := range snap.Votes {
		if name, ok := roomNames[int64(v.RoomID)]; ok {
			roomVotes[name]++
		}
	}

	return BehaviourStats{
		Routes:  routes,
		Sources: canonicalizeSources(rawSources),
		Events:  events,
		Rooms:   topN(roomVotes, config.TopN),
	}
}

// canonicalizeSources folds raw referrer strings into the fixed label
// set. Counts accumulate when several raw values map to one label; the
// "Other" bucket is always present.
func canonicalizeSources(raw map[string]int) map[string]int {
	out := make(map[string]int)
	consumed := make(map[string]bool, len(raw))

	for _, rule := range sourceRules {
		for value, count := range raw {
			if consumed[value] || !rule.pattern.MatchString(value) {
				continue
			}
			out[rule.label] += count
			consumed[value] = true
		}
	}

	other := 0
	for value, count := range raw {
		if !consumed[value] {
			other += count
		}
	}
	out["Other"] = other
	return out
}

// topN keeps the n highest counts. Ties break on key so the cut is
// deterministic.
func topN(counts map[string]int, n int) map[string]int {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, entry{key, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.key] = e.count
	}
	return out
}
