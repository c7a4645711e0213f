// Package templates renders the HTML pages of the inventory UI as templ
// components.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Flash is a one-shot status message shown above page content.
type Flash struct {
	Kind    string // "success", "info" or "error"
	Message string
	Action  string
	Code    string
}

// Success returns a success flash.
func Success(msg string) *Flash { return &Flash{Kind: "success", Message: msg} }

// Info returns an informational flash.
func Info(msg string) *Flash { return &Flash{Kind: "info", Message: msg} }

// page accumulates the first write error so components can emit markup
// without checking every call.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) render(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}

var navLinks = []struct{ href, label string }{
	{"/", "Home"},
	{"/inventory", "Display All"},
	{"/load", "Load CSV"},
	{"/add", "Add Item"},
	{"/search", "Search"},
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f5f4;color:#1c1917}
nav{background:#292524;padding:.75rem 1.5rem;display:flex;gap:1.25rem}
nav a{color:#fafaf9;text-decoration:none}
nav a.active{font-weight:700;text-decoration:underline}
main{max-width:72rem;margin:1.5rem auto;padding:0 1.5rem}
table{border-collapse:collapse;width:100%;background:#fff;font-size:.9rem}
th,td{border:1px solid #d6d3d1;padding:.35rem .5rem;text-align:left}
th{background:#e7e5e4}
.alert{padding:.75rem 1rem;margin-bottom:1rem;border-radius:.25rem}
.alert-success{background:#dcfce7}.alert-info{background:#e0f2fe}.alert-error{background:#fee2e2}
.field{margin-bottom:.6rem}.field label{display:block;font-weight:600}
.field-error{color:#b91c1c;font-size:.85rem}
.menu{display:grid;grid-template-columns:repeat(2,minmax(0,1fr));gap:1rem}
.menu a{display:block;padding:1.5rem;background:#fff;border:1px solid #d6d3d1;text-decoration:none;color:inherit}
`

// Layout wraps body in the page shell with navigation.
func Layout(title, active string, flash *Flash, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` · Ammo Tracker</title><style>`)
		p.raw(styles)
		p.raw(`</style></head><body><nav>`)
		for _, link := range navLinks {
			p.raw(`<a href="`)
			p.text(link.href)
			p.raw(`"`)
			if link.href == active {
				p.raw(` class="active"`)
			}
			p.raw(`>`)
			p.text(link.label)
			p.raw(`</a>`)
		}
		p.raw(`</nav><main><h1>`)
		p.text(title)
		p.raw(`</h1>`)
		p.render(ctx, FlashMessage(flash))
		p.render(ctx, body)
		p.raw(`</main></body></html>`)
		return p.err
	})
}

// FlashMessage renders a flash, or nothing when f is nil.
func FlashMessage(f *Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f == nil {
			return nil
		}
		p := &page{w: w}
		kind := f.Kind
		if kind == "" {
			kind = "info"
		}
		p.raw(`<div class="alert alert-`)
		p.text(kind)
		p.raw(`" role="status">`)
		p.text(f.Message)
		if f.Action != "" {
			p.raw(`. `)
			p.text(f.Action)
		}
		if f.Code != "" {
			p.raw(` <small>(`)
			p.text(f.Code)
			p.raw(`)</small>`)
		}
		p.raw(`</div>`)
		return p.err
	})
}

// ErrorPage renders a full page around an error.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", "", &Flash{Kind: "error", Message: message, Action: action, Code: code},
		templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, `<p><a href="/">Back to menu</a></p>`)
			return err
		}))
}
