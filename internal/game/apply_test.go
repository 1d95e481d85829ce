package game

import (
	"reflect"
	"testing"
)

func loadState(notes ...Note) (State, *Chart) {
	chart := &Chart{Notes: notes, NoteCount: len(notes)}
	s := NewState()
	s, _ = Apply(s, ChartLoaded{Chart: chart})
	return s, chart
}

// tickUntil applies ticks in fixed steps until the elapsed time reaches to.
func tickUntil(s State, to, step float64) State {
	for s.Time+step <= to+1e-9 {
		s, _ = Apply(s, Tick{Time: s.Time + step})
	}
	return s
}

func simpleNote(pitch int, start, end float64) Note {
	return Note{
		IsPlayer:   true,
		Instrument: "piano",
		Velocity:   64.0 / 127.0,
		Pitch:      pitch,
		Start:      start,
		End:        end,
	}
}

func TestTickPositionsMonotonic(t *testing.T) {
	s, _ := loadState()
	s, _ = Apply(s, AddNote{Note: simpleNote(60, 1.0, 1.2)})
	s, _ = Apply(s, AddNote{Note: simpleNote(61, 1.5, 1.7)})

	last := []float64{0, 0}
	for s.Time < 3.5 {
		s, _ = Apply(s, Tick{Time: s.Time + 0.1})
		for i, n := range s.Notes {
			if n.Position < last[i] {
				t.Log("position went backwards", i, last[i], n.Position)
				t.Fail()
			}
			last[i] = n.Position
		}
	}

	s = tickUntil(s, 10, 0.1)
	if len(s.Notes) != 0 {
		t.Log("notes never reached the baseline", s.Notes)
		t.Fail()
	}
	if s.Expired != 2 {
		t.Log("expired count", s.Expired, "expected 2")
		t.Fail()
	}
}

func TestStrikeInWindow(t *testing.T) {
	// Chart row True,piano,64,60,1.0,1.2 struck on lane 60 mod 4 = 0.
	s, _ := loadState(simpleNote(60, 1.0, 1.2))
	s, _ = Apply(s, AddNote{Note: simpleNote(60, 1.0, 1.2)})
	s = tickUntil(s, 3.8, 0.1)
	if s.Notes[0].Position < Baseline*0.93 {
		t.Fatal("note not in the window yet", s.Notes[0].Position)
	}

	s, fx := Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})
	if s.Score != 1 || s.Combo != 1 {
		t.Log("score", s.Score, "combo", s.Combo)
		t.Fail()
	}
	if !s.Resolved[0] {
		t.Log("note identifier not resolved")
		t.Fail()
	}
	if len(fx.Play) != 1 || fx.Play[0].ID != 0 {
		t.Log("struck note did not trigger audio", fx.Play)
		t.Fail()
	}

	// The resolved note crossing the bar later is neither a miss nor
	// eligible to sound again.
	s = tickUntil(s, 5, 0.1)
	if s.Combo != 1 || s.Multiplier != 1.0 {
		t.Log("resolved note still counted as a miss", s.Combo, s.Multiplier)
		t.Fail()
	}
	if s.Expired != 1 {
		t.Log("expired count", s.Expired)
		t.Fail()
	}
}

func TestStrikeOutsideWindow(t *testing.T) {
	s, _ := loadState(simpleNote(60, 1.0, 1.2))
	s, _ = Apply(s, AddNote{Note: simpleNote(60, 1.0, 1.2)})
	s = tickUntil(s, 2, 0.1) // position 50, far above the window
	s.Combo = 5

	s, fx := Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})
	if s.Score != 0 {
		t.Log("scored outside the window", s.Score)
		t.Fail()
	}
	if s.Combo != 0 || s.Multiplier != 1.0 {
		t.Log("whiff did not reset the streak", s.Combo, s.Multiplier)
		t.Fail()
	}
	if len(s.Playable) != 1 || len(fx.Play) != 1 {
		t.Log("no filler note queued", s.Playable, fx.Play)
		t.Fail()
	}
	if s.Playable[0].IsPlayer {
		t.Log("filler note must not be player owned")
		t.Fail()
	}
}

func TestExpiryMiss(t *testing.T) {
	s, _ := loadState(simpleNote(62, 1.0, 1.2))
	s, _ = Apply(s, AddNote{Note: simpleNote(62, 1.0, 1.2)})
	s.Combo = 7
	s.Multiplier = 1.2

	s, _ = Apply(s, Tick{Time: 4.1})
	if s.Expired != 1 {
		t.Log("expired count", s.Expired)
		t.Fail()
	}
	if s.Combo != 0 || s.Multiplier != 1.0 {
		t.Log("missed note did not reset the streak", s.Combo, s.Multiplier)
		t.Fail()
	}
	if len(s.Playable) != 1 {
		t.Log("missed note should still sound at the bar", s.Playable)
		t.Fail()
	}
}

func TestBackgroundAutoPlay(t *testing.T) {
	n := simpleNote(59, 1.0, 1.2)
	n.IsPlayer = false
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})
	s.Combo = 3

	s, fx := Apply(s, Tick{Time: 4.1})
	if len(fx.Play) != 1 {
		t.Log("background note did not auto play", fx.Play)
		t.Fail()
	}
	if s.Combo != 3 {
		t.Log("background note counted as a miss")
		t.Fail()
	}
	if s.Expired != 1 {
		t.Log("expired count", s.Expired)
		t.Fail()
	}
}

func TestAtMostOnceScoring(t *testing.T) {
	s, _ := loadState(simpleNote(60, 1.0, 1.2))
	s, _ = Apply(s, AddNote{Note: simpleNote(60, 1.0, 1.2)})
	s = tickUntil(s, 3.8, 0.1)

	s, _ = Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})
	score := s.Score

	// A second press finds nothing unresolved, so it is a plain whiff.
	s, _ = Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})
	if s.Score != score {
		t.Log("identifier scored twice", score, s.Score)
		t.Fail()
	}
	if s.Combo != 0 {
		t.Log("second press should whiff", s.Combo)
		t.Fail()
	}
}

func TestMultiplierSteps(t *testing.T) {
	s, _ := loadState()
	for i := 0; i < 25; i++ {
		lane := i % LaneCount
		s.Notes = []Note{{ID: 1000 + i, IsPlayer: true, Pitch: lane, Position: 95}}
		s, _ = Apply(s, Tap{Lane: lane, Down: true, Time: s.Time})

		want := baseMultiplier + multiplierStep*float64((i+1)/comboBlock)
		if diff := s.Multiplier - want; diff > 1e-9 || diff < -1e-9 {
			t.Log("after hit", i+1, "multiplier", s.Multiplier, "expected", want)
			t.Fail()
		}
	}
	if s.Combo != 25 {
		t.Log("combo", s.Combo)
		t.Fail()
	}
}

func TestSustainClassification(t *testing.T) {
	tests := map[Note]bool{
		simpleNote(60, 1.0, 3.0): true,  // 2.0s player note
		simpleNote(60, 1.0, 1.2): false, // too short
		{Pitch: 60, Start: 1.0, End: 3.0}: false, // background, any length
	}
	for note, sustain := range tests {
		s, _ := loadState(note)
		s, _ = Apply(s, AddNote{Note: note})
		if sustain {
			if len(s.Sustains) != 1 || nil == s.Sustains[0].Sustain {
				t.Log("expected a sustain descriptor for", note)
				t.Fail()
			} else if s.Sustains[0].Sustain.Duration != note.End-note.Start {
				t.Log("descriptor duration", s.Sustains[0].Sustain.Duration)
				t.Fail()
			}
		} else if len(s.Notes) != 1 || nil != s.Notes[0].Sustain {
			t.Log("expected a simple note for", note)
			t.Fail()
		}
	}
}

func TestSustainTailCap(t *testing.T) {
	n := simpleNote(60, 1.0, 3.0)
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})
	s = tickUntil(s, 3, 0.1)
	max := (n.End - n.Start) * TravelSpeed
	if tail := s.Sustains[0].Sustain.Tail; tail != max {
		t.Log("tail", tail, "expected cap", max)
		t.Fail()
	}
}

// Held long enough: chart row True,piano,64,60,1.0,3.0 held for more than
// 75% of its 2.0s duration scores one point on release.
func TestSustainHeldLongEnough(t *testing.T) {
	n := simpleNote(60, 1.0, 3.0)
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})
	s = tickUntil(s, 3.8, 0.1)

	s, fx := Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})
	if len(s.Held) != 1 || len(s.Sustains) != 0 {
		t.Fatal("press did not queue the sustain", s.Held, s.Sustains)
	}
	if !s.Resolved[0] {
		t.Log("sustain strike must resolve the identifier")
		t.Fail()
	}
	if len(fx.Play) != 1 {
		t.Log("sustain strike did not trigger audio")
		t.Fail()
	}

	s = tickUntil(s, 5.45, 0.05) // held for 1.65s of 2.0s
	s, fx = Apply(s, Tap{Lane: 0, Down: false, Time: s.Time})
	if s.Score != 1 || s.Combo != 1 {
		t.Log("score", s.Score, "combo", s.Combo)
		t.Fail()
	}
	if len(fx.Stop) != 1 {
		t.Log("release did not stop audio", fx.Stop)
		t.Fail()
	}
	if len(s.ExpiredHeld) != 1 || s.Expired != 1 {
		t.Log("released note not recorded as done", s.ExpiredHeld, s.Expired)
		t.Fail()
	}

	// The finished set is a snapshot; the next tick starts a fresh one.
	s, _ = Apply(s, Tick{Time: s.Time + 0.05})
	if len(s.ExpiredHeld) != 0 {
		t.Log("finished sustains leaked past the next tick", s.ExpiredHeld)
		t.Fail()
	}
}

func TestSustainReleasedTooSoon(t *testing.T) {
	n := simpleNote(60, 1.0, 3.0)
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})
	s = tickUntil(s, 3.8, 0.1)
	s, _ = Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})

	s = tickUntil(s, 4.8, 0.05) // held for only 1.0s
	s, _ = Apply(s, Tap{Lane: 0, Down: false, Time: s.Time})
	if s.Score != 0 || s.Combo != 0 {
		t.Log("short hold must not score", s.Score, s.Combo)
		t.Fail()
	}
	if s.Expired != 1 {
		t.Log("released note still counts toward completion", s.Expired)
		t.Fail()
	}
}

func TestSustainHeldToCompletion(t *testing.T) {
	n := simpleNote(60, 1.0, 3.0)
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})
	s = tickUntil(s, 3.8, 0.1)
	s, _ = Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})

	// Tick past the full 2.0s duration, keeping the snapshot from the tick
	// that finished the hold.
	var done []Note
	for s.Time < 6.5 {
		s, _ = Apply(s, Tick{Time: s.Time + 0.05})
		if len(done) == 0 && len(s.ExpiredHeld) > 0 {
			done = s.ExpiredHeld
		}
	}
	if len(s.Held) != 0 {
		t.Fatal("over-held sustain still queued", s.Held)
	}
	if s.Expired != 1 {
		t.Log("expired count", s.Expired)
		t.Fail()
	}
	if len(done) != 1 || done[0].Sustain.Held != done[0].Sustain.Duration {
		t.Log("held duration not clamped to the note duration", done)
		t.Fail()
	}
	if len(s.ExpiredHeld) != 0 {
		t.Log("finished sustains leaked past the next tick", s.ExpiredHeld)
		t.Fail()
	}

	// The release arriving after expiry is a no-op.
	before := s
	s, _ = Apply(s, Tap{Lane: 0, Down: false, Time: s.Time})
	if s.Score != before.Score || s.Expired != before.Expired {
		t.Log("late release changed the state")
		t.Fail()
	}
}

func TestSustainExpiresUnheld(t *testing.T) {
	n := simpleNote(60, 1.0, 3.0)
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})
	s.Combo = 4

	s = tickUntil(s, 4.2, 0.1)
	if len(s.Sustains) != 0 || s.Expired != 1 {
		t.Log("unheld sustain did not expire at the bar", s.Sustains, s.Expired)
		t.Fail()
	}
	if s.Combo != 0 || s.Multiplier != 1.0 {
		t.Log("unheld sustain is a miss", s.Combo, s.Multiplier)
		t.Fail()
	}
}

func TestAddNoteClearsSnapshot(t *testing.T) {
	s, _ := loadState(simpleNote(60, 1.0, 1.2), simpleNote(61, 5.0, 5.2))
	s, _ = Apply(s, AddNote{Note: simpleNote(60, 1.0, 1.2)})
	s = tickUntil(s, 3.9, 0.1)
	s, _ = Apply(s, Tick{Time: 4.05})
	if len(s.Playable) == 0 || len(s.ExpiredNotes) == 0 {
		t.Fatal("expected an eligibility snapshot", s.Playable, s.ExpiredNotes)
	}

	s, _ = Apply(s, AddNote{Note: simpleNote(61, 5.0, 5.2)})
	if len(s.Playable) != 0 || len(s.ExpiredNotes) != 0 || len(s.ExpiredSustains) != 0 {
		t.Log("new note must invalidate the previous snapshot")
		t.Fail()
	}
}

func TestIdentifiersMintedOnce(t *testing.T) {
	s, _ := loadState()
	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		s, _ = Apply(s, AddNote{Note: simpleNote(60+i, float64(i), float64(i)+0.2)})
	}
	for _, n := range s.Notes {
		if seen[n.ID] {
			t.Log("duplicate identifier", n.ID)
			t.Fail()
		}
		seen[n.ID] = true
	}
	if s.Activated != 5 {
		t.Log("activation counter", s.Activated)
		t.Fail()
	}
}

func TestTermination(t *testing.T) {
	a, b := simpleNote(60, 1.0, 1.2), simpleNote(61, 1.5, 1.7)
	s, _ := loadState(a, b)
	s, _ = Apply(s, AddNote{Note: a})
	s, _ = Apply(s, AddNote{Note: b})

	s = tickUntil(s, 4.0, 0.1)
	if s.Done {
		t.Log("done while notes were still eligible to sound")
		t.Fail()
	}
	s = tickUntil(s, 6, 0.1)
	if !s.Done {
		t.Log("not done after all notes expired", s.Expired, s.Playable)
		t.Fail()
	}

	// Done stays set until a restart.
	s, _ = Apply(s, Tick{Time: 7})
	if !s.Done {
		t.Log("done flag dropped without a restart")
		t.Fail()
	}
	s, _ = Apply(s, Restart{})
	if s.Done {
		t.Log("done flag survived a restart")
		t.Fail()
	}
}

func TestRestartKeepsHighScoreAndChart(t *testing.T) {
	s, chart := loadState(simpleNote(60, 1.0, 1.2))
	s, _ = Apply(s, AddNote{Note: simpleNote(60, 1.0, 1.2)})
	s = tickUntil(s, 3.8, 0.1)
	s, _ = Apply(s, Tap{Lane: 0, Down: true, Time: s.Time})
	if s.Score == 0 {
		t.Fatal("scenario did not score")
	}

	next, _ := Apply(s, Restart{})
	expected := NewState()
	expected.Chart = chart
	expected.HighScore = s.HighScore
	if !reflect.DeepEqual(next, expected) {
		t.Log("restarted", next)
		t.Log("expected ", expected)
		t.Fail()
	}
	if next.HighScore != 1 {
		t.Log("high score", next.HighScore)
		t.Fail()
	}
}

func TestApplyDoesNotShareNoteState(t *testing.T) {
	n := simpleNote(60, 1.0, 3.0)
	s, _ := loadState(n)
	s, _ = Apply(s, AddNote{Note: n})

	before := s.Sustains[0]
	next, _ := Apply(s, Tick{Time: 1})
	if s.Sustains[0].Position != before.Position {
		t.Log("tick mutated the previous snapshot")
		t.Fail()
	}
	if next.Sustains[0].Sustain == s.Sustains[0].Sustain {
		t.Log("sustain descriptor aliased across snapshots")
		t.Fail()
	}
}
