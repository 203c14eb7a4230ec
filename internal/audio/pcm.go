// Package audio converts caller-supplied audio blobs into the mono 16 kHz
// PCM32F buffers the inference engine expects. The gateway itself never
// resamples; this is host-side plumbing.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/go-audio/wav"
)

var (
	ErrInvalidWAV = errors.New("audio: invalid wav data")
	ErrOddPCM     = errors.New("audio: pcm16 payload length must be even")
)

// DecodeWAV decodes a WAV blob into float32 samples in [-1, 1], downmixing
// interleaved channels to mono. It returns the samples and the source sample
// rate.
func DecodeWAV(b []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return nil, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, ErrInvalidWAV
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var acc float32
		for c := 0; c < channels; c++ {
			acc += float32(buf.Data[i*channels+c]) / scale
		}
		out[i] = acc / float32(channels)
	}

	rate := int(dec.SampleRate)
	if rate == 0 && buf.Format != nil {
		rate = buf.Format.SampleRate
	}
	if rate == 0 {
		rate = 16000
	}
	return out, rate, nil
}

// DecodePCM16 converts little-endian signed 16-bit PCM bytes to float32
// samples in [-1, 1].
func DecodePCM16(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, ErrOddPCM
	}
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}

// Resample converts samples from inRate to outRate by linear interpolation.
// When the rates match it returns a copy.
func Resample(samples []float32, inRate, outRate int) []float32 {
	if inRate <= 0 || outRate <= 0 || inRate == outRate {
		return append([]float32(nil), samples...)
	}
	if len(samples) == 0 {
		return nil
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) / ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}
