package input

import (
	"context"
	"encoding/binary"
	"log"
	"os"
	"syscall"
	"time"

	"git.lost.host/meutraa/fall/internal/game"
)

// EV_KEY from linux/input-event-codes.h. Terminal key channels only
// report presses, so lane input reads the event device directly to get
// the release half of every press.
const evKey = 0x01

type keyEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Event is a lane press or release.
type Event struct {
	Lane int
	Down bool
}

// ReadLanes streams press/release events for the given key codes, one
// code per lane, from an evdev device such as
// /dev/input/by-id/...-event-kbd. Autorepeat events are dropped.
func ReadLanes(device string, codes []uint16, events chan<- Event) error {
	file, err := os.Open(device)
	if nil != err {
		return err
	}
	go func() {
		defer file.Close()

		var ev keyEvent
		for {
			if err := binary.Read(file, binary.LittleEndian, &ev); nil != err {
				log.Println("unable to read key device:", err)
				return
			}
			if ev.Type != evKey || ev.Value > 1 {
				continue
			}
			lane := -1
			for i, code := range codes {
				if ev.Code == code {
					lane = i
					break
				}
			}
			if lane < 0 {
				continue
			}
			events <- Event{Lane: lane, Down: ev.Value == 1}
		}
	}()
	return nil
}

// A terminal key channel has no key-up half, so a press forwarded from it
// gets a synthetic release this long after.
const syntheticRelease = 150 * time.Millisecond

// SendTap forwards a fallback lane press and its synthetic release into
// the event stream. It is meant to run in its own goroutine: the sends
// block until the fold loop takes them or the round ends, never the
// caller.
func SendTap(ctx context.Context, events chan<- game.Event, lane int, elapsed func() float64) {
	select {
	case events <- game.Tap{Lane: lane, Down: true, Time: elapsed()}:
	case <-ctx.Done():
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(syntheticRelease):
		select {
		case events <- game.Tap{Lane: lane, Down: false, Time: elapsed()}:
		case <-ctx.Done():
		}
	}
}
