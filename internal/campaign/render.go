package campaign

// Renderer produz o texto final de cada mensagem a partir da campanha
// e das variáveis do destinatário. Colaborador externo ao motor: nem a
// sintaxe de template nem o catálogo de templates são conhecidos aqui.
type Renderer interface {
	// ExtractVariables lista os placeholders presentes no conteúdo.
	ExtractVariables(content string) []string
	// Render resolve o texto a disparar: quando templateID aponta
	// para um template conhecido, o corpo dele substitui content;
	// caso contrário content é usado como está. As variáveis do
	// destinatário são aplicadas sobre o resultado e placeholders
	// sem valor ficam intactos.
	Render(templateID, content string, vars map[string]string) string
}
