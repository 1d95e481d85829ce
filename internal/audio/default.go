package audio

import (
	"errors"
	"log"
	"math"
	"os"
	"path"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"

	"git.lost.host/meutraa/fall/internal/game"
)

// basePitch is the MIDI pitch the instrument samples are recorded at;
// other pitches are resampled up or down from it.
const basePitch = 60

type DefaultPlayer struct {
	buffers  map[string]*beep.Buffer
	active   map[int]*beep.Ctrl
	fallback string
	rate     beep.SampleRate
}

// Init decodes one sample file per instrument tag and brings up the
// speaker at the first sample's rate. Later samples are resampled to it.
func (p *DefaultPlayer) Init(samples map[string]string) error {
	if len(samples) == 0 {
		return errors.New("no instrument samples found")
	}
	p.buffers = map[string]*beep.Buffer{}
	p.active = map[int]*beep.Ctrl{}

	for name, file := range samples {
		f, err := os.Open(file)
		if nil != err {
			return err
		}
		var streamer beep.StreamSeekCloser
		var format beep.Format
		if path.Ext(file) == ".ogg" {
			streamer, format, err = vorbis.Decode(f)
		} else {
			streamer, format, err = mp3.Decode(f)
		}
		if nil != err {
			f.Close()
			return err
		}

		if p.rate == 0 {
			p.rate = format.SampleRate
			if err := speaker.Init(p.rate, p.rate.N(time.Second/30)); nil != err {
				streamer.Close()
				return err
			}
			p.fallback = name
		}

		buf := beep.NewBuffer(beep.Format{SampleRate: p.rate, NumChannels: format.NumChannels, Precision: format.Precision})
		if format.SampleRate == p.rate {
			buf.Append(streamer)
		} else {
			buf.Append(beep.Resample(4, format.SampleRate, p.rate, streamer))
		}
		streamer.Close()
		p.buffers[name] = buf
	}
	return nil
}

func (p *DefaultPlayer) Play(n game.Note) {
	buf, ok := p.buffers[n.Instrument]
	if !ok {
		buf = p.buffers[p.fallback]
	}
	if nil == buf {
		log.Println("no sample for instrument", n.Instrument)
		return
	}

	var s beep.Streamer = buf.Streamer(0, buf.Len())
	if nil != n.Sustain {
		s = beep.Loop(-1, buf.Streamer(0, buf.Len()))
	}
	s = beep.ResampleRatio(4, math.Pow(2, float64(n.Pitch-basePitch)/12.0), s)
	s = &effects.Volume{Streamer: s, Base: 2, Volume: 2 * (n.Velocity - 1)}

	if nil != n.Sustain {
		ctrl := &beep.Ctrl{Streamer: s}
		speaker.Lock()
		p.active[n.ID] = ctrl
		speaker.Unlock()
		speaker.Play(ctrl)
		return
	}
	speaker.Play(s)
}

func (p *DefaultPlayer) Stop(id int) {
	speaker.Lock()
	if ctrl, ok := p.active[id]; ok {
		ctrl.Streamer = nil
		delete(p.active, id)
	}
	speaker.Unlock()
}
