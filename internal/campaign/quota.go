package campaign

import "context"

// Unlimited marca um limite de plano sem teto.
const Unlimited = -1

// Decision é o resultado de uma consulta de quota. Negação não é um
// erro: é uma condição esperada que pausa (não falha) a campanha.
type Decision struct {
	Allowed bool
	Scope   string
	Current int
	Limit   int
}

// QuotaGuard valida o plano do usuário antes de iniciar campanhas e
// antes de cada envio individual.
type QuotaGuard interface {
	// CanStart verifica o limite de campanhas ao iniciar uma
	// campanha nova.
	CanStart(ctx context.Context, userID string) (Decision, error)
	// CanSendOne verifica (e reserva) uma unidade do contador
	// diário de mensagens.
	CanSendOne(ctx context.Context, userID string) (Decision, error)
}

// Deny converte uma Decision negada no erro tipado correspondente.
func (d Decision) Deny() *QuotaExceededError {
	return &QuotaExceededError{Scope: d.Scope, Current: d.Current, Limit: d.Limit}
}
