package game

import "math"

// Apply folds one event into the state and returns the replacement state
// together with the side effects this transition produced. It is a total,
// pure function: same state and event, same result, no I/O.
func Apply(s State, e Event) (State, Effects) {
	switch ev := e.(type) {
	case Tick:
		return applyTick(s, ev)
	case AddNote:
		return applyAdd(s, ev)
	case Tap:
		if ev.Down {
			return applyPress(s, ev)
		}
		return applyRelease(s, ev)
	case Restart:
		next := NewState()
		next.Chart = s.Chart
		next.HighScore = s.HighScore
		return next, Effects{}
	case ChartLoaded:
		s.Chart = ev.Chart
		return s, Effects{}
	}
	return s, Effects{}
}

func applyTick(s State, ev Tick) (State, Effects) {
	var fx Effects
	delta := ev.Time - s.Time
	if delta < 0 {
		delta = 0
	}
	adv := delta * TravelSpeed

	// Partition simple notes into expired and still falling. A note
	// crossing the bar this tick also becomes eligible to sound:
	// background notes always, player notes only if the player has not
	// already used them up.
	active := make([]Note, 0, len(s.Notes))
	var expired, playable []Note
	for _, n := range s.Notes {
		n = n.advanced(adv)
		if n.Position < Baseline {
			active = append(active, n)
			continue
		}
		expired = append(expired, n)
		fx.Remove = append(fx.Remove, n.ID)
		if !n.IsPlayer || !s.Resolved[n.ID] {
			playable = append(playable, n)
		}
	}

	// Unstruck sustain notes fall like simple notes and expire at the bar.
	sustains := make([]Note, 0, len(s.Sustains))
	var expSustains []Note
	for _, n := range s.Sustains {
		n = n.advanced(adv)
		if n.Position < Baseline {
			sustains = append(sustains, n)
			continue
		}
		expSustains = append(expSustains, n)
		fx.Remove = append(fx.Remove, n.ID)
	}

	// Held sustain notes keep falling past the bar, accruing held time.
	// One that has been held for its full duration is done regardless of
	// where its head is.
	held := make([]Note, 0, len(s.Held))
	var expHeld []Note
	for _, n := range s.Held {
		n = n.advanced(adv)
		if nil != n.Sustain {
			n.Sustain.Held += delta
			if n.Sustain.Held > n.Sustain.Duration {
				n.Sustain.Held = n.Sustain.Duration
				expHeld = append(expHeld, n)
				fx.Remove = append(fx.Remove, n.ID)
				fx.Stop = append(fx.Stop, n)
				continue
			}
		}
		held = append(held, n)
	}

	misses := 0
	for _, n := range expired {
		if n.IsPlayer && !s.Resolved[n.ID] {
			misses++
		}
	}
	for _, n := range expSustains {
		if !s.Resolved[n.ID] {
			misses++
		}
	}

	s.Time = ev.Time
	s.Notes = active
	s.Sustains = sustains
	s.Held = held
	s.Playable = playable
	s.ExpiredNotes = expired
	s.ExpiredSustains = expSustains
	s.ExpiredHeld = expHeld
	s.Expired += len(expired) + len(expSustains) + len(expHeld)
	if misses > 0 {
		s.Combo = 0
		s.Multiplier = baseMultiplier
	}
	if nil != s.Chart &&
		s.Chart.NoteCount <= s.Expired &&
		len(s.Playable) == 0 &&
		len(s.Held) == 0 {
		s.Done = true
	}

	fx.Play = playable
	return s, fx
}

func applyAdd(s State, ev AddNote) (State, Effects) {
	n := ev.Note
	n.ID = s.Activated
	n.Position = 0
	n.Sustain = nil
	s.Activated++
	if n.IsPlayer && n.Duration() > sustainThreshold {
		n.Sustain = &Sustain{Duration: n.Duration()}
		s.Sustains = appendNotes(s.Sustains, n)
	} else {
		s.Notes = appendNotes(s.Notes, n)
	}
	// A new note invalidates the previous tick's eligibility snapshot.
	s.Playable = nil
	s.ExpiredNotes = nil
	s.ExpiredSustains = nil
	s.ExpiredHeld = nil
	return s, Effects{}
}

func applyPress(s State, ev Tap) (State, Effects) {
	var fx Effects

	// Sustain notes in the window take priority over simple notes; the
	// press is the lane's strike and queues them as held.
	remaining := make([]Note, 0, len(s.Sustains))
	var struck []Note
	for _, n := range s.Sustains {
		if n.Lane() == ev.Lane && n.Strikeable() {
			struck = append(struck, n)
		} else {
			remaining = append(remaining, n)
		}
	}
	holding := false
	for _, n := range s.Held {
		if n.Lane() == ev.Lane {
			holding = true
		}
	}
	if len(struck) > 0 || holding {
		if len(struck) > 0 {
			resolved := cloneResolved(s.Resolved)
			for _, n := range struck {
				resolved[n.ID] = true
			}
			s.Resolved = resolved
			s.Sustains = remaining
			s.Held = appendNotes(s.Held, struck...)
			fx.Play = struck
		}
		return s, fx
	}

	// Count strikeable simple notes on the lane, both falling ones and
	// ones that crossed the bar this very tick.
	var hits []Note
	resolved := s.Resolved
	strike := func(n Note) {
		if !n.IsPlayer || n.Lane() != ev.Lane || !n.Strikeable() || resolved[n.ID] {
			return
		}
		if len(hits) == 0 {
			resolved = cloneResolved(resolved)
		}
		resolved[n.ID] = true
		hits = append(hits, n)
	}
	for _, n := range s.Notes {
		strike(n)
	}
	for _, n := range s.Playable {
		strike(n)
	}

	if len(hits) == 0 {
		// A whiffed press. The streak dies, and a synthetic note keeps
		// the audio going without touching the score.
		s.Combo = 0
		s.Multiplier = baseMultiplier
		instrument := ""
		if nil != s.Chart {
			instrument = s.Chart.Instrument()
		}
		filler := fillerNote(s.Time, instrument)
		filler.ID = s.Activated
		s.Activated++
		s.Playable = appendNotes(s.Playable, filler)
		fx.Play = []Note{filler}
		return s, fx
	}

	s.Resolved = resolved
	s.Combo++
	if s.Combo%comboBlock == 0 {
		s.Multiplier += multiplierStep
	}
	s.Score += int(math.Round(float64(len(hits)) * s.Multiplier))
	if s.Score > s.HighScore {
		s.HighScore = s.Score
	}
	fx.Play = hits
	return s, fx
}

func applyRelease(s State, ev Tap) (State, Effects) {
	var fx Effects
	held := make([]Note, 0, len(s.Held))
	var released []Note
	for _, n := range s.Held {
		if n.Lane() == ev.Lane {
			released = append(released, n)
		} else {
			held = append(held, n)
		}
	}
	if len(released) == 0 {
		return s, fx
	}

	good := 0
	for _, n := range released {
		if nil != n.Sustain && n.Sustain.Held > n.Sustain.Duration*sustainSuccess {
			good++
		}
		fx.Stop = append(fx.Stop, n)
		fx.Remove = append(fx.Remove, n.ID)
	}

	s.Held = held
	s.ExpiredHeld = appendNotes(s.ExpiredHeld, released...)
	s.Expired += len(released)
	s.Score += good
	s.Combo += good
	if s.Score > s.HighScore {
		s.HighScore = s.Score
	}
	return s, fx
}
