// Package audio reads, concatenates, and writes the PCM clips produced by
// the synthesis backends. All timing math is integer milliseconds.
package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Defaults used when a clip has to be fabricated (silence) before any real
// audio has fixed the output format. The Hakka TTS service returns 16 kHz
// mono PCM16.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultBitDepth   = 16
)

// Clip is decoded PCM audio. Data is interleaved by channel.
type Clip struct {
	Data       []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Empty returns a zero-length clip with no fixed format; the first Append
// adopts the appended clip's format.
func Empty() *Clip {
	return &Clip{}
}

// Silence returns a clip of ms milliseconds of silence in the given format.
func Silence(ms int, sampleRate, channels int) *Clip {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	samples := ms * sampleRate / 1000 * channels
	return &Clip{
		Data:       make([]int, samples),
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   DefaultBitDepth,
	}
}

// ReadClip decodes a WAV file into memory.
func ReadClip(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	return &Clip{
		Data:       buf.Data,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
	}, nil
}

// WriteClip encodes the clip as PCM WAV at path.
func WriteClip(path string, clip *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	sampleRate := clip.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	channels := clip.Channels
	if channels <= 0 {
		channels = DefaultChannels
	}
	bitDepth := clip.BitDepth
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}

	encoder := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           clip.Data,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}

// DurationMS reports the clip length in whole milliseconds.
func (c *Clip) DurationMS() int {
	if c.SampleRate <= 0 || c.Channels <= 0 || len(c.Data) == 0 {
		return 0
	}
	frames := len(c.Data) / c.Channels
	return frames * 1000 / c.SampleRate
}

// Append concatenates other onto c, converting other's format to c's when
// they differ. An empty c adopts other's format.
func (c *Clip) Append(other *Clip) {
	if other == nil || len(other.Data) == 0 {
		return
	}
	if len(c.Data) == 0 && c.SampleRate == 0 {
		c.SampleRate = other.SampleRate
		c.Channels = other.Channels
		c.BitDepth = other.BitDepth
		c.Data = append(c.Data, other.Data...)
		return
	}

	converted := other.convert(c.SampleRate, c.Channels)
	c.Data = append(c.Data, converted...)
}

// convert returns other's samples remapped to the target rate and channel
// count. Resampling is nearest-frame, which is plenty for speech segments.
func (c *Clip) convert(sampleRate, channels int) []int {
	data := c.Data
	if c.Channels != channels {
		data = remapChannels(data, c.Channels, channels)
	}
	if c.SampleRate == sampleRate || c.SampleRate <= 0 {
		return data
	}

	srcFrames := len(data) / channels
	dstFrames := srcFrames * sampleRate / c.SampleRate
	out := make([]int, 0, dstFrames*channels)
	for frame := 0; frame < dstFrames; frame++ {
		src := frame * c.SampleRate / sampleRate
		if src >= srcFrames {
			src = srcFrames - 1
		}
		out = append(out, data[src*channels:(src+1)*channels]...)
	}
	return out
}

func remapChannels(data []int, from, to int) []int {
	if from <= 0 || to <= 0 || from == to {
		return data
	}
	frames := len(data) / from
	out := make([]int, 0, frames*to)
	for frame := 0; frame < frames; frame++ {
		// Average the source channels, then fan out to the target count.
		sum := 0
		for ch := 0; ch < from; ch++ {
			sum += data[frame*from+ch]
		}
		mono := sum / from
		for ch := 0; ch < to; ch++ {
			out = append(out, mono)
		}
	}
	return out
}
