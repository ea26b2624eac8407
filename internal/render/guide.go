package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/guidebase/guidebase/internal/catalog"
)

// guideTemplate lays out a guide's detail view: introduction, ordered
// sections with optional code and CTA groups, then resources. Markdown
// fields are pre-rendered; everything else is escaped by the template.
var guideTemplate = template.Must(template.New("guide").Parse(`<article class="guide">
  <header class="guide__header">
    <h1>{{.Guide.Title}}</h1>
    <p class="guide__meta">{{.Guide.Category.Title}} · {{.Guide.Difficulty}} · {{.Guide.EstimatedMinutes}} min</p>
    <p class="guide__summary">{{.Guide.Summary}}</p>
  </header>
  <div class="guide__introduction">{{.Introduction}}</div>
{{- if .Guide.Prerequisites}}
  <section class="guide__prerequisites">
    <h2>Before you start</h2>
    <p>{{.Guide.Prerequisites}}</p>
  </section>
{{- end}}
{{- range $i, $s := .Sections}}
  <section class="guide__section">
    <h2>{{$s.Title}}</h2>
    <div class="guide__section-content">{{$s.Content}}</div>
{{- if $s.CodeSnippet}}
    <figure class="guide__code">
      <figcaption>{{$s.CodeTitle}}</figcaption>
      <pre><code class="language-{{$s.CodeLanguage}}">{{$s.CodeSnippet}}</code></pre>
    </figure>
{{- end}}
{{- if $s.CtaURL}}
    <a class="guide__cta" href="{{$s.CtaURL}}">{{$s.CtaLabel}}</a>
{{- end}}
  </section>
{{- end}}
{{- if .Guide.Resources}}
  <section class="guide__resources">
    <h2>Resources</h2>
    <ul>
{{- range .Guide.Resources}}
      <li><a href="{{.URL}}">{{.Title}}</a> <span class="guide__resource-type">{{.Type}}</span> · {{.Description}}</li>
{{- end}}
    </ul>
  </section>
{{- end}}
</article>
`))

type guideView struct {
	Guide        *catalog.Guide
	Introduction template.HTML
	Sections     []sectionView
}

type sectionView struct {
	catalog.Section
	Content template.HTML
}

// GuideHTML renders a guide to enhanced HTML: markdown fields converted,
// sections laid out, code blocks highlighted with a copy control each.
func GuideHTML(g *catalog.Guide) (string, error) {
	intro, err := Markdown(g.Introduction)
	if err != nil {
		return "", err
	}

	view := guideView{Guide: g, Introduction: template.HTML(intro)}
	for _, s := range g.Sections {
		content, err := Markdown(s.Content)
		if err != nil {
			return "", fmt.Errorf("render: section %q: %w", s.Title, err)
		}
		view.Sections = append(view.Sections, sectionView{Section: s, Content: template.HTML(content)})
	}

	var buf bytes.Buffer
	if err := guideTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render: guide template: %w", err)
	}

	return EnhanceHTML(buf.String())
}
