package campaign

import "fmt"

// Action é uma ação de ciclo de vida solicitada sobre uma campanha.
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionCancel Action = "cancel"
)

// ParseAction valida a ação vinda da API.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionStart, ActionPause, ActionResume, ActionCancel:
		return Action(s), nil
	}
	return "", fmt.Errorf("ação desconhecida: %q", s)
}
