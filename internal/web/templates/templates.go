// Package templates holds the templ components for the provider
// directory pages.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/localwise/directory/internal/directory"
)

// Page renders the browse page: a search box, a category dropdown, and
// the provider cards currently matching the filters.
func Page(categories []string, providers directory.ProviderList, activeCategory, searchTerm string) templ.Component {
	return layout("Provider Directory", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := filterBar(categories, activeCategory, searchTerm).Render(ctx, w); err != nil {
			return err
		}
		return providerGrid(providers).Render(ctx, w)
	}))
}

// layout wraps a body component with the shared document shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head>")
		b.WriteString("<meta charset=\"utf-8\">")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
		b.WriteString("<style>")
		b.WriteString(pageCSS)
		b.WriteString("</style></head><body>")
		fmt.Fprintf(&b, "<header><h1>%s</h1></header><main>", html.EscapeString(title))
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main></body></html>")
		return err
	})
}

// filterBar renders the search form. It submits as a plain GET so the
// filtered view is a shareable URL.
func filterBar(categories []string, activeCategory, searchTerm string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<form class="filters" method="get" action="/">`)
		fmt.Fprintf(&b, `<input type="search" name="q" placeholder="Search providers..." value="%s">`,
			html.EscapeString(searchTerm))

		b.WriteString(`<select name="category">`)
		fmt.Fprintf(&b, `<option value="%s"%s>All categories</option>`,
			directory.CategoryAll, selectedAttr(activeCategory == directory.CategoryAll))
		for _, c := range categories {
			fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
				html.EscapeString(c),
				selectedAttr(strings.EqualFold(c, activeCategory)),
				html.EscapeString(c))
		}
		b.WriteString(`</select>`)

		b.WriteString(`<button type="submit">Filter</button>`)
		exportURL := exportHref(activeCategory, searchTerm)
		fmt.Fprintf(&b, `<a class="export" href="%s">Export CSV</a>`, html.EscapeString(exportURL))
		b.WriteString(`</form>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// providerGrid renders the visible provider cards, or an empty state.
func providerGrid(providers directory.ProviderList) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(providers) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No providers match the current filters.</p>`)
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, `<p class="count">%d providers</p>`, len(providers))
		b.WriteString(`<div class="grid">`)
		for _, p := range providers {
			writeCard(&b, p)
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeCard(b *strings.Builder, p directory.ProviderRecord) {
	fmt.Fprintf(b, `<article class="card" id="%s">`, html.EscapeString(p.ID))
	fmt.Fprintf(b, `<h2>%s</h2>`, html.EscapeString(p.Company))
	fmt.Fprintf(b, `<p class="category">%s</p>`, html.EscapeString(p.Category))

	if p.Specialty != "" {
		fmt.Fprintf(b, `<p class="specialty">%s</p>`, html.EscapeString(p.Specialty))
	}
	if p.Contact != "" {
		fmt.Fprintf(b, `<p class="contact">%s</p>`, html.EscapeString(p.Contact))
	}
	if p.Email != "" {
		fmt.Fprintf(b, `<p><a href="mailto:%s">%s</a></p>`,
			html.EscapeString(p.Email), html.EscapeString(p.Email))
	}
	if p.Number != "" {
		fmt.Fprintf(b, `<p class="phone">%s</p>`, html.EscapeString(p.Number))
	}
	if p.MainLocation != "" {
		fmt.Fprintf(b, `<p class="location">%s</p>`, html.EscapeString(p.MainLocation))
	}
	if p.ServiceArea != "" {
		fmt.Fprintf(b, `<p class="area">Serves: %s</p>`, html.EscapeString(p.ServiceArea))
	}
	if p.Testimonial != "" {
		fmt.Fprintf(b, `<blockquote>%s</blockquote>`, html.EscapeString(p.Testimonial))
	}

	b.WriteString(`</article>`)
}

// exportHref builds the export link carrying the active filters so the
// download matches what the user sees.
func exportHref(activeCategory, searchTerm string) string {
	var params []string
	if activeCategory != "" && activeCategory != directory.CategoryAll {
		params = append(params, "category="+url.QueryEscape(activeCategory))
	}
	if searchTerm != "" {
		params = append(params, "q="+url.QueryEscape(searchTerm))
	}
	if len(params) == 0 {
		return "/api/export"
	}
	return "/api/export?" + strings.Join(params, "&")
}

func selectedAttr(selected bool) string {
	if selected {
		return " selected"
	}
	return ""
}

const pageCSS = `
body { font-family: system-ui, sans-serif; margin: 0; background: #f7f7f5; color: #1f2430; }
header { background: #2d5a3d; color: #fff; padding: 1rem 2rem; }
header h1 { margin: 0; font-size: 1.4rem; }
main { max-width: 960px; margin: 0 auto; padding: 1.5rem; }
.filters { display: flex; gap: .5rem; flex-wrap: wrap; margin-bottom: 1.5rem; }
.filters input[type=search] { flex: 1; min-width: 200px; padding: .5rem; }
.filters select, .filters button { padding: .5rem; }
.filters .export { align-self: center; margin-left: auto; }
.count { color: #667; font-size: .9rem; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 1rem; }
.card { background: #fff; border: 1px solid #e1e1dc; border-radius: 8px; padding: 1rem; }
.card h2 { margin: 0 0 .25rem; font-size: 1.1rem; }
.card .category { color: #2d5a3d; font-weight: 600; font-size: .85rem; text-transform: uppercase; margin: 0 0 .5rem; }
.card p { margin: .2rem 0; font-size: .9rem; }
.card blockquote { margin: .5rem 0 0; padding-left: .75rem; border-left: 3px solid #e1e1dc; color: #556; font-style: italic; font-size: .85rem; }
.empty { color: #667; text-align: center; padding: 3rem 0; }
`
