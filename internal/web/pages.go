package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/krazybird78/travel-plug-checker/internal/core"
)

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:44rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
form{display:flex;gap:.5rem;flex-wrap:wrap;align-items:end}
label{display:flex;flex-direction:column;font-size:.85rem}
input,button{padding:.4rem .6rem;font-size:1rem}
.verdict{margin-top:1.5rem;padding:1rem;border-radius:.5rem;border:1px solid #d1d5db}
.ok{background:#ecfdf5}.warn{background:#fffbeb}.error{background:#fef2f2}
dt{font-weight:600}dd{margin:0 0 .5rem 0}
.code{color:#6b7280;font-size:.8rem}`

// checkPageData is everything the check page needs.
type checkPageData struct {
	names      []string
	home, dest string
	verdict    *verdict
}

// checkPage renders the picker form and, once both countries resolve, the
// verdict.
func checkPage(data checkPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		writeHead(&b, "Travel Plug Checker")
		b.WriteString(`<h1>Travel Plug Checker</h1>`)
		b.WriteString(`<form method="get" action="/check">`)
		fmt.Fprintf(&b, `<label>Home<input name="home" list="countries" value="%s" autocomplete="off"></label>`, templ.EscapeString(data.home))
		fmt.Fprintf(&b, `<label>Destination<input name="dest" list="countries" value="%s" autocomplete="off"></label>`, templ.EscapeString(data.dest))
		b.WriteString(`<button type="submit">Check</button></form>`)

		b.WriteString(`<datalist id="countries">`)
		for _, name := range data.names {
			fmt.Fprintf(&b, `<option value="%s">`, templ.EscapeString(name))
		}
		b.WriteString(`</datalist>`)

		if data.verdict != nil {
			writeVerdict(&b, data.verdict)
		}

		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeVerdict(b *strings.Builder, v *verdict) {
	class := "warn"
	if v.advisory.OK {
		class = "ok"
	}

	fmt.Fprintf(b, `<section class="verdict %s">`, class)
	fmt.Fprintf(b, `<h2>%s</h2>`, templ.EscapeString(v.advisory.Headline))
	fmt.Fprintf(b, `<p>%s &rarr; %s</p>`, templ.EscapeString(v.home.Name), templ.EscapeString(v.dest.Name))
	fmt.Fprintf(b, `<p>%s</p>`, templ.EscapeString(v.advisory.Message))

	b.WriteString(`<dl>`)
	writeTerm(b, "Plug adapter", yesNo(v.result.NeedsAdapter))
	writeTerm(b, "Voltage converter", yesNo(v.result.NeedsConverter))
	writeTerm(b, "Plug types", joinOrDash(v.dest.Plugs))
	writeTerm(b, "Voltage", joinOrDash(v.dest.Voltages))
	writeTerm(b, "Frequency", joinOrDash(v.dest.Frequencies))
	b.WriteString(`</dl>`)

	fmt.Fprintf(b, `<p>%s</p>`, templ.EscapeString(v.advisory.Recommendation))
	if v.link != "" {
		fmt.Fprintf(b, `<p><a href="%s" rel="sponsored noopener" target="_blank">Get the adapter</a></p>`, templ.EscapeString(v.link))
	}
	b.WriteString(`</section>`)
}

// errorPage renders a user-facing error with its support code.
func errorPage(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		writeHead(&b, "Error")
		b.WriteString(`<section class="verdict error">`)
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(msg.Message))
		if msg.Action != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(msg.Action))
		}
		fmt.Fprintf(&b, `<p class="code">Code: %s</p>`, templ.EscapeString(msg.Code))
		b.WriteString(`</section></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeHead(b *strings.Builder, title string) {
	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	fmt.Fprintf(b, `<title>%s</title><style>%s</style></head><body>`, templ.EscapeString(title), pageStyle)
}

func writeTerm(b *strings.Builder, term, value string) {
	fmt.Fprintf(b, `<dt>%s</dt><dd>%s</dd>`, templ.EscapeString(term), templ.EscapeString(value))
}

func yesNo(v bool) string {
	if v {
		return "Required"
	}
	return "Not needed"
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
