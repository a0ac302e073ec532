package sound

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// clip is mono PCM in [-1, 1].
type clip struct {
	sampleRate float64
	data       []float32
}

// loadClip decodes a .wav or .mp3 file, downmixed to mono.
func loadClip(path string) (clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return clip{}, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	}
	return clip{}, fmt.Errorf("sound: unsupported file %s", path)
}

func decodeWAV(r io.ReadSeeker) (clip, error) {
	dec := wav.NewDecoder(r)
	if dec == nil || !dec.IsValidFile() {
		return clip{}, fmt.Errorf("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, fmt.Errorf("wav: %w", err)
	}
	chans := int(dec.NumChans)
	if chans < 1 {
		chans = 1
	}
	scale := float32(int(1) << (dec.BitDepth - 1))
	if dec.BitDepth == 0 {
		scale = 1 << 15
	}

	c := clip{
		sampleRate: float64(dec.SampleRate),
		data:       make([]float32, 0, len(buf.Data)/chans),
	}
	for i := 0; i+chans <= len(buf.Data); i += chans {
		sum := 0
		for _, v := range buf.Data[i : i+chans] {
			sum += v
		}
		c.data = append(c.data, float32(sum)/float32(chans)/scale)
	}
	return c, nil
}

func decodeMP3(r io.Reader) (clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return clip{}, fmt.Errorf("mp3: %w", err)
	}

	// go-mp3 always yields 16bit little endian stereo: 4 bytes per sample
	c := clip{sampleRate: float64(dec.SampleRate())}
	chunk := make([]byte, 4096)
	var pending []byte
	for {
		n, err := dec.Read(chunk)
		pending = append(pending, chunk[:n]...)
		for len(pending) >= 4 {
			l := int16(uint16(pending[0]) | uint16(pending[1])<<8)
			r := int16(uint16(pending[2]) | uint16(pending[3])<<8)
			c.data = append(c.data, (float32(l)+float32(r))/2/32768)
			pending = pending[4:]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return clip{}, fmt.Errorf("mp3: %w", err)
		}
	}
	return c, nil
}

// resample converts c to rate by nearest-neighbour picking.
func (c clip) resample(rate float64) []float32 {
	if c.sampleRate <= 0 || rate <= 0 || c.sampleRate == rate {
		return c.data
	}
	n := int(float64(len(c.data)) * rate / c.sampleRate)
	out := make([]float32, n)
	step := c.sampleRate / rate
	for i := range out {
		j := int(float64(i) * step)
		if j >= len(c.data) {
			j = len(c.data) - 1
		}
		out[i] = c.data[j]
	}
	return out
}

// s16 converts samples to signed 16bit little endian bytes.
func s16(samples []float32) []byte {
	b := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		b = append(b, byte(v), byte(uint16(v)>>8))
	}
	return b
}
