package tab

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// TruncateTitle shortens a tab title to at most maxWidth terminal
// cells, appending an ellipsis when truncated. Splitting happens on
// grapheme cluster boundaries so emoji and combining marks stay intact.
func TruncateTitle(title string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(title) <= maxWidth {
		return title
	}
	if maxWidth == 1 {
		return ellipsis
	}

	budget := maxWidth - runewidth.StringWidth(ellipsis)
	var out string
	width := 0

	g := uniseg.NewGraphemes(title)
	for g.Next() {
		cluster := g.Str()
		w := runewidth.StringWidth(cluster)
		if width+w > budget {
			break
		}
		out += cluster
		width += w
	}
	return out + ellipsis
}
