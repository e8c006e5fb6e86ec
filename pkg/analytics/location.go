package analytics

import (
	"sort"

	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// LocationStats breaks users down by device, platform and geo.
type LocationStats struct {
	Device        map[string]int `json:"device"`
	OS            map[string]int `json:"os"`
	Browser       map[string]int `json:"browser"`
	Country       map[string]int `json:"country"`
	CountryRegion []RegionCount  `json:"country_region"`
	CountryCity   []CityCount    `json:"country_city"`
}

// RegionCount is a (country, region) pair with its user count.
type RegionCount struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	Count   int    `json:"count"`
}

// CityCount is a (country, city) pair with its user count.
type CityCount struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Count   int    `json:"count"`
}

type geoPair struct {
	country string
	place   string
}

func calcLocation(snap *Snapshot) LocationStats {
	device := make(map[string]int)
	osCounts := make(map[string]int)
	browser := make(map[string]int)
	country := make(map[string]int)
	regions := make(map[geoPair]int)
	cities := make(map[geoPair]int)

	for _, u := range snap.Users {
		device[u.Device]++
		osCounts[u.OS]++
		browser[u.Browser]++
		country[u.Country]++
		regions[geoPair{u.Country, u.Region}]++
		cities[geoPair{u.Country, u.City}]++
	}

	return LocationStats{
		Device:        device,
		OS:            osCounts,
		Browser:       browser,
		Country:       topN(country, config.TopN),
		CountryRegion: regionCounts(topPairs(regions, config.TopN)),
		CountryCity:   cityCounts(topPairs(cities, config.TopN)),
	}
}

// topPairs sorts geo pairs by count descending (ties on name) and cuts
// to the top n.
func topPairs(counts map[geoPair]int, n int) []geoCount {
	out := make([]geoCount, 0, len(counts))
	for pair, count := range counts {
		out = append(out, geoCount{pair: pair, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		if out[i].pair.country != out[j].pair.country {
			return out[i].pair.country < out[j].pair.country
		}
		return out[i].pair.place < out[j].pair.place
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type geoCount struct {
	pair  geoPair
	count int
}

func regionCounts(pairs []geoCount) []RegionCount {
	out := make([]RegionCount, len(pairs))
	for i, p := range pairs {
		out[i] = RegionCount{Country: p.pair.country, Region: p.pair.place, Count: p.count}
	}
	return out
}

func cityCounts(pairs []geoCount) []CityCount {
	out := make([]CityCount, len(pairs))
	for i, p := range pairs {
		out[i] = CityCount{Country: p.pair.country, City: p.pair.place, Count: p.count}
	}
	return out
}
