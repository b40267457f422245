package html

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"dispatcher/frontend/shared/nav"
)

// Layout wraps body in the page shell shared by every screen.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(title)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title><link rel="stylesheet" href="/assets/app.css"></head><body>`); err != nil {
			return err
		}
		if err := nav.TopNav().Render(ctx, w); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<script src="/assets/live.js"></script></body></html>`)
		return err
	})
}
