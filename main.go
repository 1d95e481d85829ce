package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/fall/internal/audio"
	"git.lost.host/meutraa/fall/internal/config"
	"git.lost.host/meutraa/fall/internal/game"
	"git.lost.host/meutraa/fall/internal/input"
	"git.lost.host/meutraa/fall/internal/parser"
	"git.lost.host/meutraa/fall/internal/render"
	"git.lost.host/meutraa/fall/internal/score"
	"git.lost.host/meutraa/fall/internal/theme"
	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	// Ensure our Default implementations are used as interfaces
	var r render.Renderer = &render.DefaultRenderer{}
	var th theme.Theme = &theme.DefaultTheme{}
	var psr parser.Parser = &parser.DefaultParser{}
	var aud audio.Player = &audio.DefaultPlayer{}

	columns, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}

	var chartFile string
	samples := map[string]string{}
	if err := filepath.Walk(*config.Directory, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		switch path.Ext(info.Name()) {
		case ".csv":
			chartFile = p
		case ".mp3", ".ogg":
			name := strings.TrimSuffix(info.Name(), path.Ext(info.Name()))
			samples[name] = p
		}
		return nil
	}); nil != err {
		return fmt.Errorf("unable to walk song directory: %w", err)
	}
	if chartFile == "" || len(samples) == 0 {
		return errors.New("unable to find .csv chart and .mp3/.ogg samples in given directory")
	}

	chart, err := psr.Parse(chartFile)
	if nil != err {
		return err
	}
	if chart.NoteCount == 0 {
		return errors.New("chart has no playable notes")
	}

	if err := aud.Init(samples); nil != err {
		return err
	}

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard:", err)
		}
	}()

	// Lane presses and releases come from the raw key device when one is
	// configured; otherwise the terminal keyboard stands in, with a
	// synthetic release shortly after each press.
	lanes := make(chan input.Event, 128)
	haveDevice := false
	if *config.KeyDevice != "" {
		if err := input.ReadLanes(*config.KeyDevice, config.KeyCodes, lanes); nil != err {
			log.Println("unable to open key device, falling back to keyboard:", err)
		} else {
			haveDevice = true
		}
	}

	if err := r.Init(); nil != err {
		return err
	}
	defer func() {
		// Restore the terminal state
		if err := r.Deinit(); nil != err {
			log.Println("unable to restore terminal:", err)
		}
	}()

	v := newView(r, th, rows, columns)
	var rec score.Recorder = &score.DefaultRecorder{}

	highScore := 0
	for {
		again, high, err := play(chart, v, aud, rec, keyChannel, lanes, haveDevice, highScore)
		if nil != err || !again {
			return err
		}
		highScore = high
		rec.Reset()
	}
}

// play runs one round. Every event source is derived from this round's
// context, so a restart tears all of them down and nothing stale can
// reach the next round's state.
func play(
	chart *game.Chart,
	v *view,
	aud audio.Player,
	rec score.Recorder,
	keyChannel <-chan keyboard.KeyEvent,
	lanes <-chan input.Event,
	haveDevice bool,
	highScore int,
) (bool, int, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drop lane input buffered while no round was running; nothing from a
	// previous run may reach this round's state.
	for drained := false; !drained; {
		select {
		case <-lanes:
		default:
			drained = true
		}
	}

	v.reset()

	events := make(chan game.Event, 256)
	start := time.Now().Add(*config.Delay)
	elapsed := func() float64 {
		e := time.Since(start).Seconds()
		if e < 0 {
			e = 0
		}
		return e
	}

	// Clock source
	go func() {
		ticker := time.NewTicker(*config.FramePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case events <- game.Tick{Time: elapsed()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Chart playback source, running a note's travel time ahead of its
	// chart time.
	go func() {
		for _, n := range chart.Notes {
			spawn := n.Start - game.LeadSeconds
			wait := time.Until(start.Add(time.Duration(spawn * float64(time.Second))))
			if wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
			select {
			case events <- game.AddNote{Note: n}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Lane input source
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-lanes:
				select {
				case events <- game.Tap{Lane: ev.Lane, Down: ev.Down, Time: elapsed()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	st := game.NewState()
	st.HighScore = highScore
	st, _ = game.Apply(st, game.ChartLoaded{Chart: chart})

	for {
		select {
		case key := <-keyChannel:
			if key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC {
				return false, st.HighScore, nil
			}
			if key.Rune == 'r' {
				stopHeld(aud, st)
				st, _ = game.Apply(st, game.Restart{})
				return true, st.HighScore, nil
			}
			if haveDevice {
				continue
			}
			if lane := config.KeyLane(key.Rune); lane >= 0 {
				// Dispatched off this loop; a full event buffer must
				// never block its own consumer.
				go input.SendTap(ctx, events, lane, elapsed)
			}
		case ev := <-events:
			prev := st
			var fx game.Effects
			st, fx = game.Apply(st, ev)
			rec.Record(ev)
			for _, n := range fx.Play {
				aud.Play(n)
			}
			for _, n := range fx.Stop {
				aud.Stop(n.ID)
			}
			if _, ok := ev.(game.Tick); ok {
				v.drawFrame(st, prev, rec)
			}
		}
	}
}

// stopHeld silences any sustain notes that were sounding when the run
// ended.
func stopHeld(aud audio.Player, st game.State) {
	for _, n := range st.Held {
		aud.Stop(n.ID)
	}
}

var gold = color.RGBA{R: 236, G: 195, A: 255}

type cell struct {
	row, col int
}

type view struct {
	r       render.Renderer
	th      theme.Theme
	rows    int
	barRow  int
	lanes   [game.LaneCount]int
	sideCol int
	drawn   []cell
}

func newView(r render.Renderer, th theme.Theme, rows, columns int) *view {
	mc := columns >> 1
	spacing := int(*config.ColumnSpacing)
	v := &view{
		r:      r,
		th:     th,
		rows:   rows,
		barRow: rows - int(*config.BarRow),
		lanes: [game.LaneCount]int{
			mc - spacing*3,
			mc - spacing,
			mc + spacing,
			mc + spacing*3,
		},
	}
	v.sideCol = v.lanes[0] - 28
	if v.sideCol < 2 {
		v.sideCol = 2
	}
	return v
}

// reset wipes the screen so nothing from a previous round bleeds into
// this one.
func (v *view) reset() {
	v.drawn = v.drawn[:0]
	v.r.Clear()
	v.r.Flush()
}

func (v *view) rowFor(position float64) int {
	row := 1 + int(math.Round(position/game.Baseline*float64(v.barRow-1)))
	if row > v.barRow {
		row = v.barRow
	}
	return row
}

func (v *view) put(row, col int, sym string) {
	if row < 1 || row >= v.rows || col < 1 {
		return
	}
	v.r.Fill(row, col, sym)
	v.drawn = append(v.drawn, cell{row: row, col: col})
}

func (v *view) drawNote(n game.Note, resolved map[int]bool) {
	col := v.lanes[n.Lane()]
	if nil == n.Sustain {
		if n.IsPlayer && resolved[n.ID] {
			return // struck notes leave the field immediately
		}
		v.put(v.rowFor(n.Position), col, v.th.RenderNote(n.Lane()))
		return
	}

	head := v.rowFor(n.Position)
	tail := int(math.Round(n.Sustain.Tail / game.Baseline * float64(v.barRow-1)))
	for i := 1; i <= tail; i++ {
		v.put(head-i, col, v.th.RenderSustainTail(n.Lane()))
	}
	v.put(head, col, v.th.RenderSustainHead(n.Lane()))
}

func (v *view) drawFrame(st game.State, prev game.State, rec score.Recorder) {
	if st.Done && !prev.Done {
		v.r.Clear()
	}
	for _, c := range v.drawn {
		v.r.Fill(c.row, c.col, " ")
	}
	v.drawn = v.drawn[:0]

	for i, col := range v.lanes {
		v.r.Fill(v.barRow, col, v.th.RenderHitField(i))
	}

	for _, n := range st.Notes {
		v.drawNote(n, st.Resolved)
	}
	for _, n := range st.Sustains {
		v.drawNote(n, st.Resolved)
	}
	for _, n := range st.Held {
		v.drawNote(n, st.Resolved)
	}

	// A tick that broke the streak gets a marker on each missed lane.
	if st.Combo == 0 && prev.Combo > 0 {
		for _, n := range st.ExpiredNotes {
			if n.IsPlayer && !st.Resolved[n.ID] {
				v.r.AddDecoration(v.lanes[n.Lane()], v.barRow-1, "\033[1;31m╳\033[0m", 20)
			}
		}
		for _, n := range st.ExpiredSustains {
			if !st.Resolved[n.ID] {
				v.r.AddDecoration(v.lanes[n.Lane()], v.barRow-1, "\033[1;31m╳\033[0m", 20)
			}
		}
	}

	scoreLine := fmt.Sprintf("     Score:  %6v", st.Score)
	if st.Score > 0 && st.Score == st.HighScore {
		v.r.FillColor(2, v.sideCol, gold, scoreLine)
	} else {
		v.r.Fill(2, v.sideCol, scoreLine)
	}
	v.r.Fill(3, v.sideCol, fmt.Sprintf("High Score:  %6v", st.HighScore))
	v.r.Fill(4, v.sideCol, fmt.Sprintf("     Combo:  %6v", st.Combo))
	v.r.Fill(5, v.sideCol, fmt.Sprintf("Multiplier:  %6.1f", st.Multiplier))
	v.r.Fill(6, v.sideCol, fmt.Sprintf("      Hits:  %6v", len(st.Resolved)))
	v.r.Fill(7, v.sideCol, fmt.Sprintf(" Remaining:  %6v", st.Remaining()))
	v.r.Fill(8, v.sideCol, fmt.Sprintf("    Inputs:  %6v", len(rec.Inputs())))

	if st.Done {
		mid := v.rows >> 1
		v.r.FillColor(mid-1, v.sideCol, gold, "          Song complete")
		v.r.Fill(mid, v.sideCol, fmt.Sprintf("    Final score %v (best %v)", st.Score, st.HighScore))
		v.r.Fill(mid+1, v.sideCol, "    r to restart, esc to quit")
	}

	v.r.Flush()
}
