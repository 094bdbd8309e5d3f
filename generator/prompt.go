package generator

import "strings"

// TopicPlaceholder is replaced with the caller's topic in prompt templates.
const TopicPlaceholder = "{{topic}}"

const (
	DefaultSystemPrompt = "Eres un asistente que genera artículos HTML con estilo moderno y limpio."

	DefaultArticleTemplate = `Eres un redactor especializado en desarrollo web y marketing digital.
Escribe un artículo optimizado para SEO sobre el tema "{{topic}}" usando HTML moderno.
Estructura:
- <h1> título principal </h1>
- <section> con introducción en <p>
- Subtítulos con <h2> y secciones detalladas con <p> o <ul>
- Conclusión en <section> final
Estilo visual:
- Usa párrafos claros (<p>) y listas con <ul><li>.
- No uses etiquetas <html>, <head> o <body>.
- Usa lenguaje profesional, inspirador y cercano.`

	DefaultImageTemplate = `Crea una imagen moderna, minimalista y elegante relacionada con: {{topic}}.
Estilo: fondo limpio, colores suaves, iluminación natural, formato horizontal 16:9.`

	// DefaultFallbackArticle is returned when the model answers without content.
	DefaultFallbackArticle = "Artículo no generado."
)

// Prompt is the message set sent to the text model.
type Prompt struct {
	System string
	User   string
	Topic  string
}

// Prompts holds the deployment-tunable templates. Zero fields fall back to the defaults.
type Prompts struct {
	System          string
	Article         string
	Image           string
	FallbackArticle string
}

func (p Prompts) withDefaults() Prompts {
	if strings.TrimSpace(p.System) == "" {
		p.System = DefaultSystemPrompt
	}
	if strings.TrimSpace(p.Article) == "" {
		p.Article = DefaultArticleTemplate
	}
	if strings.TrimSpace(p.Image) == "" {
		p.Image = DefaultImageTemplate
	}
	if p.FallbackArticle == "" {
		p.FallbackArticle = DefaultFallbackArticle
	}
	return p
}

// BuildArticlePrompt fills the article template with topic.
func BuildArticlePrompt(p Prompts, topic string) Prompt {
	p = p.withDefaults()
	return Prompt{
		System: p.System,
		User:   strings.ReplaceAll(strings.TrimSpace(p.Article), TopicPlaceholder, topic),
		Topic:  topic,
	}
}

// BuildImagePrompt fills the image template with topic.
func BuildImagePrompt(p Prompts, topic string) string {
	p = p.withDefaults()
	return strings.ReplaceAll(strings.TrimSpace(p.Image), TopicPlaceholder, topic)
}
