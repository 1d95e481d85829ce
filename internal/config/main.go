package config

import (
	"strconv"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Directory   = kingpin.Arg("directory", "Song/chart directory").Required().ExistingDir()
	Delay       = kingpin.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	FramePeriod = kingpin.Flag("frame-period", "Render frame period").Default("16ms").Short('p').Duration()

	ColumnSpacing = kingpin.Flag("spacing", "Columns between lanes").Default("6").Short('S').Uint()
	BarRow        = kingpin.Flag("bar-row", "Console rows between hit bar and bottom edge").Default("4").Uint()

	KeyDevice = kingpin.Flag("key-device", "Input event device for press/release pairs").Default("").String()
	keyCodes  = kingpin.Flag("key-codes", "Input event codes for the four lanes").Default("30,31,32,33").String()
	laneKeys  = kingpin.Flag("keys", "Fallback keyboard keys for the four lanes").Default("asdf").Short('k').String()

	// KeyCodes holds the parsed --key-codes values, one per lane.
	KeyCodes []uint16
)

func init() {
	kingpin.Version("0.1.0")
	kingpin.Parse()

	for _, part := range strings.Split(*keyCodes, ",") {
		code, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if nil != err {
			continue
		}
		KeyCodes = append(KeyCodes, uint16(code))
	}
}

func Keys() []rune {
	return []rune(*laneKeys)
}

// KeyLane maps a fallback keyboard rune to its lane, or -1.
func KeyLane(r rune) int {
	for i, c := range Keys() {
		if r == c {
			return i
		}
	}
	return -1
}
