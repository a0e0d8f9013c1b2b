package layout

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"foodgram/internal/views/theme"
)

func TestDocumentRendersProvidedContent(t *testing.T) {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write([]byte("<main>content</main>"))
		return err
	})

	var buf bytes.Buffer
	err := Document("Shopping <list>", theme.Resolve("kitchen"), content).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render document: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>Shopping &lt;list&gt;</title>") {
		t.Fatalf("expected escaped document title: %s", out)
	}
	if !strings.Contains(out, "<main>content</main>") {
		t.Fatalf("expected body content in output: %s", out)
	}
	if !strings.Contains(out, "#fefce8") {
		t.Fatalf("expected kitchen palette to be applied: %s", out)
	}
}

func TestDocumentWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	if err := Document("Empty", theme.Resolve(""), nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render document: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "</body></html>") {
		t.Fatalf("expected closed document: %s", buf.String())
	}
}
