package out

import (
	"context"
	"fmt"
	"io"

	timerout "studyhub/internal/modules/timer/port/out"
)

// BellCue rings the terminal bell. A disabled cue does nothing.
type BellCue struct {
	out     io.Writer
	enabled bool
}

func NewBellCue(out io.Writer, enabled bool) timerout.Cue {
	return &BellCue{out: out, enabled: enabled}
}

func (c *BellCue) Play(_ context.Context) error {
	if !c.enabled || c.out == nil {
		return nil
	}
	if _, err := io.WriteString(c.out, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}
