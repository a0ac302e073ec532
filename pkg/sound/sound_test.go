package sound

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/qnkhuat/chess4fun/pkg"
	"go.uber.org/zap"
)

// writeWAV writes a 16bit file with chans interleaved channels.
func writeWAV(t *testing.T, path string, rate, chans int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, chans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: chans, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to encode wav: %s", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %s", err)
	}
}

func TestLoadWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "move.wav")
	writeWAV(t, path, 8000, 1, []int{0, 16384, -16384, 32767})

	c, err := loadClip(path)
	if err != nil {
		t.Fatalf("failed to load clip: %s", err)
	}
	if c.sampleRate != 8000 {
		t.Errorf("unexpected sample rate %f", c.sampleRate)
	}
	want := []float32{0, 0.5, -0.5}
	if len(c.data) != 4 {
		t.Fatalf("expected 4 mono samples, got %d", len(c.data))
	}
	for i, w := range want {
		if c.data[i] != w {
			t.Errorf("sample %d: got %f want %f", i, c.data[i], w)
		}
	}
}

func TestLoadWAVDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	// left/right pairs
	writeWAV(t, path, 8000, 2, []int{16384, 0, 16384, -16384, -16384, -16384})

	c, err := loadClip(path)
	if err != nil {
		t.Fatalf("failed to load clip: %s", err)
	}
	want := []float32{0.25, 0, -0.5}
	if len(c.data) != len(want) {
		t.Fatalf("expected %d mono samples, got %d", len(want), len(c.data))
	}
	for i, w := range want {
		if c.data[i] != w {
			t.Errorf("sample %d: got %f want %f", i, c.data[i], w)
		}
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "move.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadClip(path); err == nil {
		t.Error("expected an error for an ogg file")
	}
}

func TestResample(t *testing.T) {
	c := clip{sampleRate: 100, data: []float32{0, 1, 2, 3}}
	if got := c.resample(200); len(got) != 8 || got[1] != 0 || got[2] != 1 || got[7] != 3 {
		t.Errorf("unexpected upsampled data %v", got)
	}
	if got := c.resample(50); len(got) != 2 || got[1] != 2 {
		t.Errorf("unexpected downsampled data %v", got)
	}
	if got := c.resample(100); len(got) != 4 {
		t.Errorf("same rate should not resample: %v", got)
	}
}

func TestS16(t *testing.T) {
	got := s16([]float32{0, 1, -1, 2})
	want := []byte{0x00, 0x00, 0xff, 0x7f, 0x01, 0x80, 0xff, 0x7f}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x want % x", got, want)
	}
}

func TestClipName(t *testing.T) {
	tests := map[pkg.EventKind]string{
		pkg.EventMove:     "move",
		pkg.EventCapture:  "capture",
		pkg.EventGameOver: "gameover",
		pkg.EventIllegal:  "illegal",
		pkg.EventUndo:     "undo",
	}
	for kind, want := range tests {
		if got := ClipName(kind); got != want {
			t.Errorf("ClipName(%d) = %s, want %s", kind, got, want)
		}
	}
}

func TestLoadClips(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "move.wav"), 8000, 1, []int{1, 2, 3})
	writeWAV(t, filepath.Join(dir, "check.wav"), 8000, 1, []int{1, 2, 3})
	clips := loadClips(dir, zap.NewNop().Sugar())
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if _, ok := clips[pkg.EventCheck]; !ok {
		t.Error("expected the check clip to load")
	}
}

func TestNewPlayerDisabled(t *testing.T) {
	if _, ok := NewPlayer(t.TempDir(), false, zap.NewNop().Sugar()).(Mute); !ok {
		t.Error("disabled sound should be mute")
	}
	if _, ok := NewPlayer(t.TempDir(), true, zap.NewNop().Sugar()).(Mute); !ok {
		t.Error("no clips should be mute")
	}
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := Bell{W: &buf}
	b.Play(pkg.Event{Kind: pkg.EventMove})
	b.Play(pkg.Event{Kind: pkg.EventCheck})
	if buf.String() != "\a" {
		t.Errorf("expected a single bell, got %q", buf.String())
	}
}
