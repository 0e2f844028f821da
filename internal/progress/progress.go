// Package progress defines the observer contract for human-readable
// status updates emitted during a backup run.
package progress

import "github.com/rs/zerolog/log"

// Observer receives status messages. Implementations must not block;
// the pipeline never inspects a return value, so an observer cannot
// influence or abort a run.
type Observer interface {
	Update(message string)
}

// LogObserver forwards status messages to the process logger.
type LogObserver struct{}

func (LogObserver) Update(message string) {
	log.Info().Msg(message)
}

// Notify sends a message to every observer in the slice. Nil-safe.
func Notify(observers []Observer, message string) {
	for _, o := range observers {
		o.Update(message)
	}
}
