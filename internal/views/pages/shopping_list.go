package pages

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"foodgram/internal/views/layout"
	"foodgram/internal/views/theme"
)

// ShoppingListItem is one consolidated ingredient line.
type ShoppingListItem struct {
	Name   string
	Unit   string
	Amount float64
}

// ShoppingListData aggregates what both shopping list renderings need.
type ShoppingListData struct {
	Owner       string
	GeneratedAt time.Time
	Items       []ShoppingListItem
}

// FormatAmount renders a quantity with at most two decimals and no trailing zeros.
func FormatAmount(value float64) string {
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// FormatListDate renders the generation date of a list.
func FormatListDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02.01.2006")
}

// ShoppingListLine renders an item as "Name (unit) — amount".
func ShoppingListLine(item ShoppingListItem) string {
	return fmt.Sprintf("%s (%s) — %s", item.Name, item.Unit, FormatAmount(item.Amount))
}

// WriteShoppingListText writes the plain-text download.
func WriteShoppingListText(w io.Writer, data ShoppingListData) error {
	var b strings.Builder
	b.WriteString("Список покупок")
	if data.Owner != "" {
		b.WriteString(": " + data.Owner)
	}
	if date := FormatListDate(data.GeneratedAt); date != "" {
		b.WriteString(" (" + date + ")")
	}
	b.WriteString("\n\n")
	if len(data.Items) == 0 {
		b.WriteString("Список пуст.\n")
	}
	for _, item := range data.Items {
		b.WriteString(ShoppingListLine(item))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ShoppingList renders the printable HTML page.
func ShoppingList(data ShoppingListData, palette theme.Palette) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<header style="` + templ.EscapeString(palette.HeaderStyle) + `"><h1>Список покупок</h1>`)
		if data.Owner != "" || !data.GeneratedAt.IsZero() {
			b.WriteString(`<p style="` + templ.EscapeString(palette.MutedStyle) + `">`)
			b.WriteString(templ.EscapeString(strings.TrimSpace(data.Owner + " " + FormatListDate(data.GeneratedAt))))
			b.WriteString(`</p>`)
		}
		b.WriteString(`</header>`)

		if len(data.Items) == 0 {
			b.WriteString(`<p style="` + templ.EscapeString(palette.MutedStyle) + `">Список пуст.</p>`)
		} else {
			b.WriteString(`<ul style="list-style: none; padding: 0;">`)
			for _, item := range data.Items {
				b.WriteString(`<li style="` + templ.EscapeString(palette.RowStyle) + `"><input type="checkbox"> `)
				b.WriteString(templ.EscapeString(item.Name))
				b.WriteString(` <span style="` + templ.EscapeString(palette.MutedStyle) + `">(`)
				b.WriteString(templ.EscapeString(item.Unit))
				b.WriteString(`)</span> <strong>`)
				b.WriteString(FormatAmount(item.Amount))
				b.WriteString(`</strong></li>`)
			}
			b.WriteString(`</ul>`)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Document("Список покупок", palette, body)
}
