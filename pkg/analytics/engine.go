// Package analytics computes the aggregate structures served by the
// API. Every calculator is a pure function over a request-scoped
// snapshot of the columnar store; empty inputs yield zero-valued
// aggregates, never errors.
package analytics

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jkrumm/fpp-analytics/pkg/store"
)

// Engine binds the calculators to a store and the fixed analytics
// start date.
type Engine struct {
	store     *store.Store
	startDate time.Time
	now       func() time.Time
}

// NewEngine returns an Engine reading from st. startDate bounds the
// historical and reoccurrence series.
func NewEngine(st *store.Store, startDate time.Time) *Engine {
	return &Engine{store: st, startDate: startDate, now: time.Now}
}

// Bundle is the full dashboard payload.
type Bundle struct {
	Traffic              TrafficStats     `json:"traffic"`
	Votes                VoteStats        `json:"votes"`
	Behaviour            BehaviourStats   `json:"behaviour"`
	Reoccurring          []ReoccurringDay `json:"reoccurring"`
	Historical           []HistoricalDay  `json:"historical"`
	LocationAndUserAgent LocationStats    `json:"location_and_user_agent"`
}

// ComputeBundle loads a snapshot and runs all dashboard calculators
// over it concurrently. Semantics are all-or-nothing: a snapshot load
// failure fails the whole bundle.
func (e *Engine) ComputeBundle(ctx context.Context) (*Bundle, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{}
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { bundle.Traffic = calcTraffic(snap, e.startDate) })
	run(func() { bundle.Votes = calcVotes(snap) })
	run(func() { bundle.Behaviour = calcBehaviour(snap) })
	run(func() { bundle.Reoccurring = calcReoccurring(snap, e.startDate, e.now()) })
	run(func() { bundle.Historical = calcHistorical(snap, e.startDate, e.now()) })
	run(func() { bundle.LocationAndUserAgent = calcLocation(snap) })
	wg.Wait()

	return bundle, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round0(v float64) float64 {
	return math.Round(v)
}

// ratio resolves x/y with the empty-set convention: a zero denominator
// yields 0, not NaN.
func ratio(x, y float64) float64 {
	if y == 0 {
		return 0
	}
	return x / y
}
