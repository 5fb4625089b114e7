package pipeline

import (
	"log/slog"
)

// Broadcast copies every message of input to all outputs. A full output drops
// the message instead of blocking the others. Outputs are closed once input is.
func Broadcast[T any](input <-chan T, outputs ...chan<- T) {
	go func() {
		for msg := range input {
			for _, output := range outputs {
				select {
				case output <- msg:
				default:
					// just swallow the error
					slog.Warn("could not write to channel")
				}
			}
		}
		for _, output := range outputs {
			close(output)
		}
	}()
}
