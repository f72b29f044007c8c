package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/intuitionamiga/oxid"
	"github.com/intuitionamiga/oxid/logger"
)

// WAV PCM format tag
const WAV_FORMAT_PCM = 1

// WAVCapture writes one frame's worth of the sound stream to a WAV file
// per emulated frame, so the recording length follows emulated time rather
// than host time.
type WAVCapture struct {
	file *os.File
	enc  *wav.Encoder
	src  io.Reader

	perFrame float64
	carry    float64
	raw      []byte
	buf      *audio.IntBuffer
}

func NewWAVCapture(path string, src io.Reader, frameRate float64) (*WAVCapture, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("wav capture: frame rate %v", frameRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav capture: %w", err)
	}
	c := &WAVCapture{
		file:     f,
		enc:      wav.NewEncoder(f, oxid.SOUND_SAMPLE_RATE, 16, oxid.SOUND_CHANNELS, WAV_FORMAT_PCM),
		src:      src,
		perFrame: oxid.SOUND_SAMPLE_RATE / frameRate,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: oxid.SOUND_CHANNELS, SampleRate: oxid.SOUND_SAMPLE_RATE},
			SourceBitDepth: 16,
		},
	}
	logger.Logf(logger.Allow, "host", "capturing audio to %s", path)
	return c, nil
}

// Frame appends the samples of one emulated frame.
func (c *WAVCapture) Frame() error {
	c.carry += c.perFrame
	samples := int(c.carry)
	c.carry -= float64(samples)
	if samples == 0 {
		return nil
	}

	n := samples * oxid.SOUND_FRAME_BYTES
	if cap(c.raw) < n {
		c.raw = make([]byte, n)
	}
	c.raw = c.raw[:n]
	if _, err := io.ReadFull(c.src, c.raw); err != nil {
		return fmt.Errorf("wav capture: %w", err)
	}

	data := c.buf.Data[:0]
	for i := 0; i+1 < n; i += 2 {
		data = append(data, int(int16(binary.LittleEndian.Uint16(c.raw[i:]))))
	}
	c.buf.Data = data
	if err := c.enc.Write(c.buf); err != nil {
		return fmt.Errorf("wav capture: %w", err)
	}
	return nil
}

// Close finishes the WAV header and closes the file.
func (c *WAVCapture) Close() error {
	err := c.enc.Close()
	if cerr := c.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("wav capture: %w", err)
	}
	return nil
}
