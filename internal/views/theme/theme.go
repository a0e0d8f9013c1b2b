package theme

import "strings"

// Palette contains the inline styles used by the printable pages.
type Palette struct {
	Key         string
	BodyStyle   string
	HeaderStyle string
	RowStyle    string
	MutedStyle  string
}

const (
	// DefaultKey is used when the request does not ask for a theme.
	DefaultKey = "paper"
)

var catalogue = map[string]Palette{
	"paper": {
		Key:         "paper",
		BodyStyle:   "font-family: Georgia, serif; color: #1c1917; background: #ffffff; margin: 2rem;",
		HeaderStyle: "border-bottom: 2px solid #1c1917; padding-bottom: .5rem;",
		RowStyle:    "padding: .35rem 0; border-bottom: 1px dotted #a8a29e;",
		MutedStyle:  "color: #78716c; font-size: .85rem;",
	},
	"kitchen": {
		Key:         "kitchen",
		BodyStyle:   "font-family: Helvetica, Arial, sans-serif; font-size: 1.4rem; color: #000000; background: #fefce8; margin: 1.5rem;",
		HeaderStyle: "border-bottom: 4px solid #000000; padding-bottom: .75rem;",
		RowStyle:    "padding: .75rem 0; border-bottom: 2px solid #000000;",
		MutedStyle:  "color: #3f3f46; font-size: 1rem;",
	},
}

// Resolve returns the palette registered for key, falling back to the default.
func Resolve(key string) Palette {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if value, ok := catalogue[normalized]; ok {
		return value
	}
	return catalogue[DefaultKey]
}
