//go:build headless

package main

import (
	"errors"
	"io"
)

type AudioOutput interface {
	Start()
	Close()
}

func NewAudioOutput(src io.Reader) (AudioOutput, error) {
	return nil, errors.New("built without audio support")
}
