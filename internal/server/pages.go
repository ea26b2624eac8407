package server

import (
	"html/template"
	"log"
	"net/http"

	"github.com/guidebase/guidebase/internal/catalog"
)

// pageData feeds the viewer layout. Content is pre-rendered and trusted;
// everything else is escaped by the template.
type pageData struct {
	Title       string
	Guides      []catalog.GuideSummary
	Drafts      []string
	Active      string
	Content     string
	Placeholder string
	ListError   string
	DetailError string
	Violations  []string
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"raw": func(s string) template.HTML { return template.HTML(s) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · guidebase</title>
<link rel="stylesheet" href="/assets/app.css">
<link rel="stylesheet" href="/assets/highlight.css">
</head>
<body>
<div class="layout">
<nav class="sidebar">
<h1 class="sidebar__brand"><a href="/">guidebase</a></h1>
{{if .ListError}}<p class="status status--error">{{.ListError}}</p>{{end}}
{{if .Guides}}
<ul class="sidebar__list">
{{range .Guides}}
<li{{if eq .Slug $.Active}} class="sidebar__item--active"{{end}}>
<a href="/guides/{{.Slug}}">{{.Title}}</a>
<span class="sidebar__meta">{{.Difficulty}} · {{.EstimatedMinutes}} min</span>
</li>
{{end}}
</ul>
{{else if not .ListError}}
<p class="status">No guides yet.</p>
{{end}}
{{if .Drafts}}
<h2 class="sidebar__heading">Drafts</h2>
<ul class="sidebar__list">
{{range .Drafts}}
<li{{if eq (printf "draft:%s" .) $.Active}} class="sidebar__item--active"{{end}}>
<a href="/drafts/{{.}}">{{.}}</a>
</li>
{{end}}
</ul>
{{end}}
</nav>
<main class="content">
{{if .Violations}}
<div class="status status--error">
<p>This draft is not ready to submit:</p>
<ul>{{range .Violations}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}
{{if .DetailError}}
<p class="status status--error">{{.DetailError}}</p>
{{else if .Placeholder}}
<p class="placeholder">{{.Placeholder}}</p>
{{else if .Content}}
{{raw .Content}}
{{else}}
<p class="placeholder">Select a guide from the list.</p>
{{end}}
</main>
</div>
<script src="/assets/copy.js"></script>
<script>
(function () {
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (ev) {
      try {
        if (JSON.parse(ev.data).type === "reload") location.reload();
      } catch (e) { /* ignore */ }
    };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }
  connect();
})();
</script>
</body>
</html>
`))

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("[serve] render page failed: %v", err)
	}
}
