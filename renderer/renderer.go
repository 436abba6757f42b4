// Package renderer formats fxh results as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

// RenderPortfolio renders a portfolio valuation.
func RenderPortfolio(p *Portfolio) string {
	partials := map[string]string{
		"portfolio_wallets": "portfolio_wallets.md",
		"missing_rates":     "missing_rates.md",
	}
	return renderTemplate("portfolio", "portfolio.md", partials, p)
}

// RenderTrade renders the outcome of a buy or a sell.
func RenderTrade(t *Trade) string {
	return renderTemplate("trade", "trade.md", nil, t)
}

// RenderRate renders an exchange rate and its reciprocal.
func RenderRate(r *Rate) string {
	return renderTemplate("rate", "rate.md", nil, r)
}

// RenderHistory renders the recorded quotes of a currency.
func RenderHistory(h *History) string {
	return renderTemplate("history", "history.md", nil, h)
}

// RenderCurrencies renders the list of supported currencies.
func RenderCurrencies(c *Currencies) string {
	return renderTemplate("currencies", "currencies.md", nil, c)
}

// RenderUpdate renders the report of a rates update.
func RenderUpdate(u *Update) string {
	return renderTemplate("update", "update.md", nil, u)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
