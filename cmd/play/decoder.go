package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// source is a decoded audio stream handed to the PCM device.
type source interface {
	// PCMBuffer reads decoded samples into buf and returns the number of samples read.
	PCMBuffer(buf *audio.IntBuffer) (n int, err error)
	Duration() (time.Duration, error)
	NumChans() int
	SampleRate() int
	BitDepth() int
	IsFloat() bool
}

// openSource picks a decoder by the file extension.
func openSource(path string) (source, io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var src source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		src, err = newMp3Source(file)
	default:
		src, err = newWavSource(file)
	}

	if err != nil {
		file.Close()

		return nil, nil, err
	}

	return src, file, nil
}

type wavSource struct {
	*wav.Decoder
}

func newWavSource(r io.ReadSeeker) (source, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	return &wavSource{Decoder: decoder}, nil
}

func (w *wavSource) SampleRate() int { return int(w.Decoder.SampleRate) }
func (w *wavSource) NumChans() int   { return int(w.Decoder.NumChans) }
func (w *wavSource) BitDepth() int   { return int(w.Decoder.BitDepth) }
func (w *wavSource) IsFloat() bool   { return w.Decoder.WavAudioFormat == 3 } // 3 == IEEE float

// mp3Source always yields 16-bit stereo samples.
type mp3Source struct {
	decoder *mp3.Decoder
	raw     []byte
}

func newMp3Source(r io.Reader) (source, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("invalid MP3 file: %w", err)
	}

	return &mp3Source{decoder: decoder}, nil
}

func (m *mp3Source) PCMBuffer(buf *audio.IntBuffer) (int, error) {
	need := len(buf.Data) * 2
	if cap(m.raw) < need {
		m.raw = make([]byte, need)
	}
	raw := m.raw[:need]

	n, err := io.ReadFull(m.decoder, raw)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	samples := n / 2
	for i := range samples {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}

	return samples, nil
}

func (m *mp3Source) Duration() (time.Duration, error) {
	frames := m.decoder.Length() / 4
	if frames < 0 {
		return 0, errors.New("unknown MP3 length")
	}

	return time.Duration(frames) * time.Second / time.Duration(m.decoder.SampleRate()), nil
}

func (m *mp3Source) SampleRate() int { return m.decoder.SampleRate() }
func (m *mp3Source) NumChans() int   { return 2 }
func (m *mp3Source) BitDepth() int   { return 16 }
func (m *mp3Source) IsFloat() bool   { return false }
