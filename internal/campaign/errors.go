package campaign

import (
	"errors"
	"fmt"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

var ErrCampaignNotFound = errors.New("campanha não encontrada")

// InvalidTransitionError indica uma ação ilegal para o status atual.
// Nenhum efeito colateral ocorre quando ela é retornada.
type InvalidTransitionError struct {
	Status model.CampaignStatus
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transição inválida: ação %q não permitida no status %s", e.Action, e.Status)
}

// QuotaExceededError é uma condição esperada e recuperável: o plano
// do usuário atingiu o limite de campanhas ou de mensagens diárias.
// Campanhas em execução são pausadas, nunca canceladas, ao recebê-la.
type QuotaExceededError struct {
	Scope   string // "campaigns" ou "messages"
	Current int
	Limit   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota excedida (%s): uso atual %d, limite %d", e.Scope, e.Current, e.Limit)
}

// IsInvalidTransition reporta se err é uma transição rejeitada.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}

// IsQuotaExceeded reporta se err é uma negação de quota.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
