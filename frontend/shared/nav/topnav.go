package nav

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"dispatcher/infrastructure/audit"
)

// TopNavData is shared with page renderers.
type TopNavData struct {
	Operator string
	Links    []Link
}

type Link struct {
	Label string
	Href  string
}

func BuildTopNavData(ctx context.Context) TopNavData {
	return TopNavData{
		Operator: audit.Actor(ctx),
		Links: []Link{
			{Label: "Orders", Href: "/orders"},
			{Label: "On device", Href: "/orders?local=1"},
			{Label: "Gate entry", Href: "/gate/draft"},
		},
	}
}

// TopNav renders the header bar from the request context.
func TopNav() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		data := BuildTopNavData(ctx)
		if _, err := io.WriteString(w, `<nav class="topnav">`); err != nil {
			return err
		}
		for _, l := range data.Links {
			if _, err := io.WriteString(w, `<a href="`+templ.EscapeString(l.Href)+`">`+templ.EscapeString(l.Label)+`</a> `); err != nil {
				return err
			}
		}
		if data.Operator != "" {
			if _, err := io.WriteString(w, `<span class="muted">`+templ.EscapeString(data.Operator)+`</span>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav>`)
		return err
	})
}
