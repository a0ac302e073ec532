// Package sound plays a short clip for every match event.
package sound

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
)

const sampleFreq = 44100

// Player reacts to match events with sound.
type Player interface {
	Play(ev pkg.Event)
	Close() error
}

// Mute plays nothing.
type Mute struct{}

func (Mute) Play(pkg.Event) {}
func (Mute) Close() error   { return nil }

// Bell rings the terminal bell for events that need attention.
type Bell struct {
	W io.Writer
}

func (b Bell) Play(ev pkg.Event) {
	switch ev.Kind {
	case pkg.EventCheck, pkg.EventGameOver, pkg.EventIllegal:
		io.WriteString(b.W, "\a")
	}
}

func (Bell) Close() error { return nil }

// ClipName is the file name (without extension) of the clip for kind.
func ClipName(kind pkg.EventKind) string {
	return kind.String()
}

// NewPlayer loads the clips found in dir and opens an audio device. Without
// sound, or when no clip loads, it returns Mute; without an audio device it
// falls back to the terminal bell.
func NewPlayer(dir string, enabled bool, log *zap.SugaredLogger) Player {
	if !enabled {
		return Mute{}
	}
	clips := loadClips(dir, log)
	if len(clips) == 0 {
		log.Infow("no sound clips found", "dir", dir)
		return Mute{}
	}
	p, err := newSDLPlayer(clips, log)
	if err != nil {
		log.Warnw("audio device unavailable, using terminal bell", "err", err)
		return Bell{W: os.Stdout}
	}
	return p
}

func loadClips(dir string, log *zap.SugaredLogger) map[pkg.EventKind]clip {
	clips := make(map[pkg.EventKind]clip)
	for kind := pkg.EventMove; kind <= pkg.EventUndo; kind++ {
		for _, ext := range []string{".wav", ".mp3"} {
			path := filepath.Join(dir, ClipName(kind)+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			c, err := loadClip(path)
			if err != nil {
				log.Warnw("failed to load clip", "path", path, "err", err)
				continue
			}
			clips[kind] = c
			break
		}
	}
	return clips
}

// SDLPlayer queues clips on an SDL audio device. A new clip cuts off the
// one still playing.
type SDLPlayer struct {
	mu    sync.Mutex
	id    sdl.AudioDeviceID
	clips map[pkg.EventKind][]byte
	log   *zap.SugaredLogger
}

func newSDLPlayer(clips map[pkg.EventKind]clip, log *zap.SugaredLogger) (*SDLPlayer, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, err
	}
	spec := &sdl.AudioSpec{
		Freq:     sampleFreq,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  512,
	}
	var actual sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, err
	}

	p := &SDLPlayer{id: id, clips: make(map[pkg.EventKind][]byte, len(clips)), log: log}
	for kind, c := range clips {
		p.clips[kind] = s16(c.resample(float64(actual.Freq)))
	}
	sdl.PauseAudioDevice(id, false)
	log.Infow("audio device opened", "freq", actual.Freq, "clips", len(p.clips))
	return p, nil
}

func (p *SDLPlayer) Play(ev pkg.Event) {
	data, ok := p.clips[ev.Kind]
	if !ok && ev.Kind != pkg.EventMove {
		// fall back to the plain move sound for move-like events
		switch ev.Kind {
		case pkg.EventCapture, pkg.EventCastle, pkg.EventPromote, pkg.EventCheck:
			data, ok = p.clips[pkg.EventMove]
		}
	}
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id == 0 {
		return
	}
	sdl.ClearQueuedAudio(p.id)
	if err := sdl.QueueAudio(p.id, data); err != nil {
		p.log.Warnw("failed to queue audio", "event", ev.Kind, "err", err)
	}
}

func (p *SDLPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id != 0 {
		sdl.CloseAudioDevice(p.id)
		p.id = 0
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
	}
	return nil
}
