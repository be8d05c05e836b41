// Package codesync keeps rendered TOTP codes phase-locked to the server's
// 30-second rotation.
//
// An Engine runs two clocks off one tick source. The visual clock maps wall
// time to a countdown fraction on every tick. The boundary clock notices
// when a tick lands in a new period and asks for exactly one refetch per
// table. The cycle is recorded when the fetch is requested, not when it
// completes, so a slow response can never cause a second fetch in the same
// period.
package codesync

import (
	"time"

	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// Period is the TOTP rotation period.
const Period = 30 * time.Second

// Tick is the outcome of one scheduled frame.
type Tick struct {
	Fraction float64       // elapsed share of the current period, in [0, 1)
	Cycle    int64         // floor(now / period)
	Fetch    []model.Table // tables to refetch; empty except at boundaries
}

// Engine owns the boundary clock state. The zero value is not usable; use
// NewEngine.
type Engine struct {
	period    time.Duration
	tables    []model.Table
	lastCycle int64
	started   bool
}

// NewEngine creates an engine that refetches the given tables.
func NewEngine(tables ...model.Table) *Engine {
	return &Engine{period: Period, tables: append([]model.Table(nil), tables...)}
}

// Period returns the rotation period.
func (e *Engine) Period() time.Duration { return e.period }

// LastCycle returns the most recent cycle a fetch was requested for, and
// false before the first tick.
func (e *Engine) LastCycle() (int64, bool) { return e.lastCycle, e.started }

// Tick advances the clocks to now.
func (e *Engine) Tick(now time.Time) Tick {
	t := Tick{
		Fraction: FractionAt(now, e.period),
		Cycle:    CycleAt(now, e.period),
	}
	if !e.started || t.Cycle != e.lastCycle {
		e.started = true
		e.lastCycle = t.Cycle
		t.Fetch = append([]model.Table(nil), e.tables...)
	}
	return t
}

// Remaining is how long the current code stays valid at now.
func (e *Engine) Remaining(now time.Time) time.Duration {
	ms := e.period.Milliseconds()
	return time.Duration(ms-floorMod(now.UnixMilli(), ms)) * time.Millisecond
}

// FractionAt is (now mod period) / period, in milliseconds.
func FractionAt(now time.Time, period time.Duration) float64 {
	ms := period.Milliseconds()
	return float64(floorMod(now.UnixMilli(), ms)) / float64(ms)
}

// CycleAt is floor(now / period), in milliseconds.
func CycleAt(now time.Time, period time.Duration) int64 {
	ms := period.Milliseconds()
	return floorDiv(now.UnixMilli(), ms)
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
