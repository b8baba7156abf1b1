package campaign

import (
	"context"
	"errors"
	"fmt"
)

// Gateway é o transporte de mensagens (serviço de sessões WhatsApp).
// Colaborador externo: o motor só conhece esta interface.
type Gateway interface {
	Send(ctx context.Context, instanceID, phone, text string) (SendResult, error)
}

type SendResult struct {
	MessageID string
}

// ErrInstanceUnusable é fatal para a campanha: a sessão do WhatsApp
// está desconectada ou inválida. Os destinatários PENDING permanecem
// PENDING para um eventual reinício com a instância reconectada.
var ErrInstanceUnusable = errors.New("instância indisponível para envio")

// TransientSendError é um erro recuperável de envio (timeout de rede,
// 5xx do gateway). O destinatário é reenfileirado com backoff até
// maxRetries.
type TransientSendError struct {
	Err error
}

func (e *TransientSendError) Error() string {
	return fmt.Sprintf("erro transitório de envio: %v", e.Err)
}

func (e *TransientSendError) Unwrap() error { return e.Err }

// PermanentSendError é um erro definitivo para o destinatário
// (número inválido). Sem retry; a campanha continua.
type PermanentSendError struct {
	Err error
}

func (e *PermanentSendError) Error() string {
	return fmt.Sprintf("erro permanente de envio: %v", e.Err)
}

func (e *PermanentSendError) Unwrap() error { return e.Err }

// IsPermanentSendError reporta se o erro não deve gerar retry.
func IsPermanentSendError(err error) bool {
	var pe *PermanentSendError
	return errors.As(err, &pe)
}
