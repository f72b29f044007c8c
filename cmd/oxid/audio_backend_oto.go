//go:build !headless

// audio_backend_oto.go - OTO v3 audio output of the machine sound stream

package main

import (
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/intuitionamiga/oxid"
)

// AudioOutput plays a PCM stream on the host.
type AudioOutput interface {
	Start()
	Close()
}

type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mutex   sync.Mutex
}

// NewAudioOutput opens the host audio device for the sound stub's signed
// 16-bit stereo stream and attaches a player reading src.
func NewAudioOutput(src io.Reader) (AudioOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   oxid.SOUND_SAMPLE_RATE,
		ChannelCount: oxid.SOUND_CHANNELS,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{
		ctx:    ctx,
		player: ctx.NewPlayer(src),
	}, nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Close() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		_ = op.player.Close()
		op.player = nil
	}
	op.started = false
}
