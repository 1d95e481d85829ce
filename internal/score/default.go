package score

import (
	"sort"

	"git.lost.host/meutraa/fall/internal/game"
)

type DefaultRecorder struct {
	inputs []game.Tap
}

var _ Recorder = (*DefaultRecorder)(nil)

func (r *DefaultRecorder) Record(e game.Event) {
	if tap, ok := e.(game.Tap); ok {
		r.inputs = append(r.inputs, tap)
	}
}

func (r *DefaultRecorder) Inputs() []game.Tap {
	return r.inputs
}

func (r *DefaultRecorder) Reset() {
	r.inputs = nil
}

// Compact returns the session in per-lane form.
func (r *DefaultRecorder) Compact() History {
	return History{Inputs: compactInputs(r.inputs)}
}

func compactInputs(inputs []game.Tap) []InputsCompact {
	laneCount := 0
	for _, i := range inputs {
		if i.Lane >= laneCount {
			laneCount = i.Lane + 1
		}
	}
	ins := make([]InputsCompact, laneCount)
	for lane := range ins {
		ins[lane].Lane = lane
		ins[lane].Presses = []float64{}
		ins[lane].Releases = []float64{}
	}
	for _, i := range inputs {
		if i.Down {
			ins[i.Lane].Presses = append(ins[i.Lane].Presses, i.Time)
		} else {
			ins[i.Lane].Releases = append(ins[i.Lane].Releases, i.Time)
		}
	}
	return ins
}

// uncompactInputs flattens a history back into taps ordered by time,
// presses before releases when they coincide.
func uncompactInputs(inputs []InputsCompact) []game.Tap {
	taps := []game.Tap{}
	for _, i := range inputs {
		for _, t := range i.Presses {
			taps = append(taps, game.Tap{Lane: i.Lane, Down: true, Time: t})
		}
		for _, t := range i.Releases {
			taps = append(taps, game.Tap{Lane: i.Lane, Down: false, Time: t})
		}
	}
	sort.SliceStable(taps, func(a, b int) bool {
		if taps[a].Time != taps[b].Time {
			return taps[a].Time < taps[b].Time
		}
		return taps[a].Down && !taps[b].Down
	})
	return taps
}

type timedEvent struct {
	at   float64
	rank int // tick < add < tap at equal times
	ev   game.Event
}

// Replay folds a recorded session against a fresh state: the chart load,
// every note arrival, a fixed tick cadence and the recorded taps are
// merged into one ordered stream the same way the live loop merges its
// sources. Two replays of the same inputs always land on the same state.
func Replay(chart *game.Chart, taps []game.Tap, step float64) game.State {
	evs := []timedEvent{}
	horizon := 0.0

	for _, n := range chart.Notes {
		at := n.Start - game.LeadSeconds
		if at < 0 {
			at = 0
		}
		evs = append(evs, timedEvent{at: at, rank: 1, ev: game.AddNote{Note: n}})
		if end := at + game.LeadSeconds + n.Duration(); end > horizon {
			horizon = end
		}
	}
	for _, tap := range taps {
		evs = append(evs, timedEvent{at: tap.Time, rank: 2, ev: tap})
		if tap.Time > horizon {
			horizon = tap.Time
		}
	}
	// Two extra ticks let the last expiry snapshot clear so the terminal
	// flag can settle.
	horizon += 2 * step
	for at := step; at <= horizon+1e-9; at += step {
		evs = append(evs, timedEvent{at: at, rank: 0, ev: game.Tick{Time: at}})
	}

	sort.SliceStable(evs, func(a, b int) bool {
		if evs[a].at != evs[b].at {
			return evs[a].at < evs[b].at
		}
		return evs[a].rank < evs[b].rank
	})

	s := game.NewState()
	s, _ = game.Apply(s, game.ChartLoaded{Chart: chart})
	for _, te := range evs {
		s, _ = game.Apply(s, te.ev)
	}
	return s
}
