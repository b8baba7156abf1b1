package clock

import "time"

// Clock abstrai o relógio para que o dispatcher e a fila de retry
// possam ser testados sem dormir de verdade.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// System retorna o relógio real do sistema.
func System() Clock {
	return systemClock{}
}
