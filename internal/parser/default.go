package parser

import (
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	"git.lost.host/meutraa/fall/internal/game"
)

type DefaultParser struct{}

// A chart is newline separated rows of
//
//	owner,instrument,velocity,pitch,start,end
//
// where owner is the string "True" for player notes, velocity is 0-127,
// pitch is a MIDI-like integer and start/end are chart-relative seconds.
// The first row is a column header and a trailing blank row is allowed;
// neither counts as a playable note. Rows that fail to parse are dropped
// here so the engine only ever sees well-formed notes.
func (p *DefaultParser) Parse(file string) (*game.Chart, error) {
	data, err := ioutil.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.parse(string(data)), nil
}

func (p *DefaultParser) parse(data string) *game.Chart {
	str := strings.ReplaceAll(data, "\r", "")
	lines := strings.Split(str, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}

	notes := []game.Note{}
	for _, line := range lines {
		note, ok := p.parseRow(line)
		if !ok {
			continue
		}
		notes = append(notes, note)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})

	return &game.Chart{
		Notes:     notes,
		NoteCount: len(notes),
	}
}

func (p *DefaultParser) parseRow(line string) (game.Note, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 6 {
		return game.Note{}, false
	}

	velocity, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if nil != err {
		return game.Note{}, false
	}
	pitch, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if nil != err {
		return game.Note{}, false
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if nil != err {
		return game.Note{}, false
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if nil != err {
		return game.Note{}, false
	}

	v := velocity / 127.0
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	return game.Note{
		IsPlayer:   strings.TrimSpace(fields[0]) == "True",
		Instrument: strings.TrimSpace(fields[1]),
		Velocity:   v,
		Pitch:      pitch,
		Start:      start,
		End:        end,
	}, true
}
