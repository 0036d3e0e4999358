// internal/redirect/page.go
//
// Interstitial pages for the scan flow.
//
// The verification page is the server-side face of the Verified state: it
// confirms the destination, shows branding when the owner paid for it,
// and carries a meta-refresh that performs the actual navigation after
// the confirmation delay.  Because the navigation lives in the rendered
// page, abandoning the page cancels it — a closed tab never redirects.
//
// Templates are compiled once at init; a parse failure is a programmer
// error and panics before the server can accept traffic.
package redirect

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var pages = template.Must(template.New("redirect").Parse(`
{{define "verify"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.DelaySec}};url={{.URL}}">
<title>Redirecting…</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;margin:0;
align-items:center;justify-content:center;background:#fafafa;color:#222}
.card{max-width:28rem;padding:2rem;border-radius:12px;background:#fff;
box-shadow:0 1px 8px rgba(0,0,0,.08);text-align:center}
.card.dark{background:#1d1d1f;color:#eee}
.card.accent{border-top:4px solid #4f46e5}
.dest{word-break:break-all;color:#4f46e5}
small{color:#888}
</style>
</head>
<body>
<div class="card {{.BrandingStyle}}">
{{if .BrandingText}}<p><strong>{{.BrandingText}}</strong></p>{{end}}
<h1>Verified — redirecting you</h1>
<p>Destination: <span class="dest">{{.URL}}</span></p>
<p><small>You will be redirected in {{.DelaySec}} seconds.
<a href="{{.URL}}">Continue now</a>.</small></p>
</div>
</body>
</html>{{end}}

{{define "blocked"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Redirect blocked</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;margin:0;
align-items:center;justify-content:center;background:#fff5f5;color:#222}
.card{max-width:28rem;padding:2rem;border-radius:12px;background:#fff;
box-shadow:0 1px 8px rgba(0,0,0,.1)}
h1{color:#b91c1c}
.dest{word-break:break-all}
</style>
</head>
<body>
<div class="card">
<h1>Redirect blocked</h1>
<p>The destination <span class="dest">{{.URL}}</span> failed our safety
checks and this redirect was stopped.</p>
<ul>{{range .Threats}}<li>{{.}}</li>{{end}}</ul>
<p>If you trust this destination you may copy the address manually.  We
will not navigate there automatically.</p>
</div>
</body>
</html>{{end}}

{{define "error"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;margin:0;
align-items:center;justify-content:center;background:#fafafa;color:#222}
.card{max-width:28rem;padding:2rem;border-radius:12px;background:#fff;
box-shadow:0 1px 8px rgba(0,0,0,.08);text-align:center}
</style>
</head>
<body>
<div class="card"><h1>{{.Title}}</h1><p>{{.Message}}</p></div>
</body>
</html>{{end}}
`))

type verifyData struct {
	URL           string
	DelaySec      int
	BrandingStyle string
	BrandingText  string
}

type blockedData struct {
	URL     string
	Threats []string
}

type errorData struct {
	Title   string
	Message string
}

// renderPage writes one named template with the given status code.
func renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		zap.S().Errorw("interstitial render failed", "page", name, "err", err)
	}
}
