// Package layout renders the HTML document shell shared by printable pages.
package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"foodgram/internal/views/theme"
)

// Document wraps body in a complete HTML page styled with palette.
func Document(title string, palette theme.Palette, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := `<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8"><title>` +
			templ.EscapeString(title) +
			`</title></head><body style="` + templ.EscapeString(palette.BodyStyle) + `">`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
