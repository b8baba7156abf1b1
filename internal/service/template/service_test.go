package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVariables(t *testing.T) {
	svc := NewService()

	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{"sem placeholder", "olá, tudo bem?", nil},
		{"um placeholder", "olá {{nome}}", []string{"nome"}},
		{"vários distintos", "{{nome}}, seu pedido {{pedido}} saiu", []string{"nome", "pedido"}},
		{"repetidos contam uma vez", "{{nome}} e {{nome}} de novo", []string{"nome"}},
		{"espaços internos", "oi {{ nome }}", []string{"nome"}},
		{"underscore e dígitos", "{{cupom_10}}", []string{"cupom_10"}},
		{"chaves soltas ignoradas", "uso de { chaves } e {{incompleto", nil},
		{"ordem da primeira ocorrência", "{{b}} {{a}} {{b}}", []string{"b", "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.ExtractVariables(tc.content))
		})
	}
}

func TestApply(t *testing.T) {
	svc := NewService()

	cases := []struct {
		name    string
		content string
		vars    map[string]string
		want    string
	}{
		{
			name:    "substituição simples",
			content: "olá {{nome}}!",
			vars:    map[string]string{"nome": "Ana"},
			want:    "olá Ana!",
		},
		{
			name:    "várias variáveis",
			content: "{{nome}}, cupom {{cupom}} até {{data}}",
			vars:    map[string]string{"nome": "Bia", "cupom": "DEZ10", "data": "sexta"},
			want:    "Bia, cupom DEZ10 até sexta",
		},
		{
			name:    "variável ausente fica intacta",
			content: "olá {{nome}}, cupom {{cupom}}",
			vars:    map[string]string{"nome": "Ana"},
			want:    "olá Ana, cupom {{cupom}}",
		},
		{
			name:    "sem variáveis devolve o conteúdo",
			content: "mensagem fixa",
			vars:    map[string]string{"nome": "Ana"},
			want:    "mensagem fixa",
		},
		{
			name:    "mapa vazio devolve o conteúdo",
			content: "olá {{nome}}",
			vars:    nil,
			want:    "olá {{nome}}",
		},
		{
			name:    "espaços no placeholder",
			content: "olá {{ nome }}",
			vars:    map[string]string{"nome": "Ana"},
			want:    "olá Ana",
		},
		{
			name:    "valor com chaves não reprocessa",
			content: "olá {{nome}}",
			vars:    map[string]string{"nome": "{{nome}}"},
			want:    "olá {{nome}}",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.Apply(tc.content, tc.vars))
		})
	}
}

// mapSource é um catálogo de templates em memória.
type mapSource map[string]string

func (m mapSource) TemplateBody(id string) (string, bool) {
	body, ok := m[id]
	return body, ok
}

func TestRender(t *testing.T) {
	catalog := mapSource{"tpl-boasvindas": "bem-vinda, {{nome}}!"}

	cases := []struct {
		name       string
		svc        *Service
		templateID string
		content    string
		vars       map[string]string
		want       string
	}{
		{
			name:       "template conhecido substitui o conteúdo",
			svc:        NewServiceWithSource(catalog),
			templateID: "tpl-boasvindas",
			content:    "olá {{nome}}",
			vars:       map[string]string{"nome": "Ana"},
			want:       "bem-vinda, Ana!",
		},
		{
			name:       "template desconhecido cai no conteúdo",
			svc:        NewServiceWithSource(catalog),
			templateID: "tpl-inexistente",
			content:    "olá {{nome}}",
			vars:       map[string]string{"nome": "Ana"},
			want:       "olá Ana",
		},
		{
			name:       "sem templateID usa o conteúdo",
			svc:        NewServiceWithSource(catalog),
			templateID: "",
			content:    "olá {{nome}}",
			vars:       map[string]string{"nome": "Ana"},
			want:       "olá Ana",
		},
		{
			name:       "sem catálogo usa o conteúdo",
			svc:        NewService(),
			templateID: "tpl-boasvindas",
			content:    "olá {{nome}}",
			vars:       map[string]string{"nome": "Ana"},
			want:       "olá Ana",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.svc.Render(tc.templateID, tc.content, tc.vars))
		})
	}
}
