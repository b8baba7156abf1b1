package template

import (
	"regexp"
	"strings"
)

// placeholderRe casa {{nome}} com espaços opcionais. Nomes seguem
// identificadores simples: letras, dígitos e underscore.
var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Source fornece o corpo de um template por id. O catálogo de
// templates vive fora desta plataforma; a integração chega por aqui.
type Source interface {
	TemplateBody(id string) (string, bool)
}

// Service implementa a substituição de variáveis {{var}} usada nas
// mensagens de campanha.
type Service struct {
	source Source
}

func NewService() *Service {
	return &Service{}
}

// NewServiceWithSource cria o serviço ligado a um catálogo de
// templates externo.
func NewServiceWithSource(source Source) *Service {
	return &Service{source: source}
}

// ExtractVariables lista os placeholders distintos do conteúdo, na
// ordem da primeira ocorrência.
func (s *Service) ExtractVariables(content string) []string {
	matches := placeholderRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render resolve o texto final de uma mensagem. Quando templateID
// aponta para um template conhecido do catálogo, o corpo dele vale
// como conteúdo; sem catálogo ou com id desconhecido, content é a
// fonte do texto. As variáveis são aplicadas sobre o resultado.
func (s *Service) Render(templateID, content string, vars map[string]string) string {
	if templateID != "" && s.source != nil {
		if body, ok := s.source.TemplateBody(templateID); ok {
			content = body
		}
	}
	return s.Apply(content, vars)
}

// Apply substitui cada placeholder pelo valor correspondente.
// Placeholders sem valor ficam intactos no texto, de modo que dados
// incompletos ficam visíveis em vez de sumir silenciosamente.
func (s *Service) Apply(content string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(content, "{{") {
		return content
	}
	return placeholderRe.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}
