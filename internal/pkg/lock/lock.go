package lock

import (
	"context"
	"time"
)

// Locker concede exclusividade de execução para um recurso nomeado.
// O motor de campanhas usa um lock por campanha para garantir que
// nunca exista mais de um dispatcher ativo para o mesmo id, mesmo
// com múltiplos processos da API rodando.
type Locker interface {
	// Acquire tenta adquirir o lock. Retorna ok=false se outro dono
	// já o possui. O release devolvido é seguro de chamar mais de
	// uma vez e só remove o lock se ainda formos o dono.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
