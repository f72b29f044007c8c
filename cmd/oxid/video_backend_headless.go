//go:build headless

package main

import (
	"context"
	"errors"
)

func runWindow(ctx context.Context, runner *Runner, scale int) error {
	return errors.New("built without a display, run with -headless")
}
