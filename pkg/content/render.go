package content

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Placeholder is emitted by RenderStored when stored content cannot be
// decoded. Read paths show this instead of failing.
const Placeholder = `<p class="content-unavailable">Content unavailable</p>`

// RenderStored decodes raw stored content and renders it, degrading to
// [Placeholder] when the content is malformed. It never returns an error:
// a note with unreadable content still reads.
func RenderStored(raw string) string {
	c, err := Unmarshal(raw)
	if err != nil {
		return Placeholder
	}
	return Render(c)
}

// PlainText flattens a document to text, one line per block. Styles,
// links and atomic entities are dropped; only the readable text survives.
// Used for the OneDrive mirror of notes.
func PlainText(c Content) string {
	lines := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if b.Type == BlockAtomic {
			continue
		}
		lines = append(lines, b.Text)
	}
	return strings.Join(lines, "\n")
}

// Render projects a document into HTML. It is pure: the same document always
// yields byte-identical markup. Consecutive list items group under one
// <ul>/<ol>; atomic blocks render their entity; unknown entity types render
// nothing rather than failing the document.
func Render(c Content) string {
	c = c.normalized()
	var sb strings.Builder
	var listTag string // open list element, "" when none

	closeList := func() {
		if listTag != "" {
			sb.WriteString("</" + listTag + ">")
			listTag = ""
		}
	}

	for _, b := range c.Blocks {
		tag := listTagFor(b.Type)
		if tag != listTag {
			closeList()
			if tag != "" {
				sb.WriteString("<" + tag + ">")
				listTag = tag
			}
		}

		switch b.Type {
		case BlockHeaderOne:
			sb.WriteString("<h1>" + renderInline(b, c) + "</h1>")
		case BlockHeaderTwo:
			sb.WriteString("<h2>" + renderInline(b, c) + "</h2>")
		case BlockHeaderThree:
			sb.WriteString("<h3>" + renderInline(b, c) + "</h3>")
		case BlockUnorderedItem, BlockOrderedItem:
			sb.WriteString("<li>" + renderInline(b, c) + "</li>")
		case BlockQuote:
			sb.WriteString("<blockquote>" + renderInline(b, c) + "</blockquote>")
		case BlockCode:
			sb.WriteString("<pre><code>" + html.EscapeString(b.Text) + "</code></pre>")
		case BlockAtomic:
			sb.WriteString(renderAtomic(b, c))
		default:
			sb.WriteString("<p>" + renderInline(b, c) + "</p>")
		}
	}
	closeList()
	return sb.String()
}

func listTagFor(t BlockType) string {
	switch t {
	case BlockUnorderedItem:
		return "ul"
	case BlockOrderedItem:
		return "ol"
	}
	return ""
}

// renderAtomic renders the entity behind an atomic block. Each entity type
// has a fixed projection; anything unrecognized contributes nothing.
func renderAtomic(b Block, c Content) string {
	if len(b.EntityRanges) == 0 {
		return ""
	}
	ent, ok := c.Entity(b.EntityRanges[0].Key)
	if !ok {
		return ""
	}
	switch ent.Type {
	case EntityImage:
		src, _ := ent.Data["src"].(string)
		alt, _ := ent.Data["alt"].(string)
		return fmt.Sprintf(`<img src=%q alt=%q>`, src, alt)
	case EntityDivider:
		return "<hr>"
	case EntityTable:
		return renderTable(ent)
	}
	return ""
}

// renderTable projects a table entity into an N x M grid. The editor stores
// dimensions only; first-row cells default to a header label and the rest to
// a placeholder, matching the editor's display.
func renderTable(ent Entity) string {
	rows := dataInt(ent.Data, "rows")
	cols := dataInt(ent.Data, "cols")
	if rows <= 0 || cols <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<table><tbody>")
	for r := 0; r < rows; r++ {
		sb.WriteString("<tr>")
		for col := 0; col < cols; col++ {
			if r == 0 {
				sb.WriteString("<td>Header</td>")
			} else {
				sb.WriteString("<td>Cell</td>")
			}
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

// dataInt reads a numeric entity-data field. JSON decoding produces float64;
// documents built in memory may carry int.
func dataInt(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// renderInline renders a block's text with inline styles and link entities
// applied. The text is segmented at every range boundary; consecutive
// segments sharing a link entity share one anchor, and within a segment
// style tags nest in a fixed order so output is deterministic.
func renderInline(b Block, c Content) string {
	runes := []rune(b.Text)
	n := len(runes)
	if n == 0 {
		return ""
	}

	cuts := map[int]bool{0: true, n: true}
	for _, r := range b.InlineStyleRanges {
		cuts[clamp(r.Offset, n)] = true
		cuts[clamp(r.Offset+r.Length, n)] = true
	}
	for _, r := range b.EntityRanges {
		cuts[clamp(r.Offset, n)] = true
		cuts[clamp(r.Offset+r.Length, n)] = true
	}
	bounds := make([]int, 0, len(cuts))
	for o := range cuts {
		bounds = append(bounds, o)
	}
	sort.Ints(bounds)

	// Order in which style tags nest, outermost first.
	styleOrder := []InlineStyle{StyleBold, StyleItalic, StyleUnderline, StyleStrikethrough, StyleCode}
	styleTags := map[InlineStyle]string{
		StyleBold:          "strong",
		StyleItalic:        "em",
		StyleUnderline:     "u",
		StyleStrikethrough: "del",
		StyleCode:          "code",
	}

	var sb strings.Builder
	openLink := -1 // entity key of the currently open anchor

	closeLink := func() {
		if openLink >= 0 {
			sb.WriteString("</a>")
			openLink = -1
		}
	}

	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]

		link := linkAt(b, c, lo)
		if link != openLink {
			closeLink()
			if link >= 0 {
				ent, _ := c.Entity(link)
				url, _ := ent.Data["url"].(string)
				sb.WriteString(fmt.Sprintf(`<a href=%q target="_blank" rel="noopener">`, url))
				openLink = link
			}
		}

		active := stylesAt(b, lo)
		var opened []string
		for _, s := range styleOrder {
			if active[s] {
				sb.WriteString("<" + styleTags[s] + ">")
				opened = append(opened, styleTags[s])
			}
		}
		sb.WriteString(html.EscapeString(string(runes[lo:hi])))
		for j := len(opened) - 1; j >= 0; j-- {
			sb.WriteString("</" + opened[j] + ">")
		}
	}
	closeLink()
	return sb.String()
}

// linkAt returns the key of the link entity covering offset, or -1.
func linkAt(b Block, c Content, offset int) int {
	for _, r := range b.EntityRanges {
		if offset < r.Offset || offset >= r.Offset+r.Length {
			continue
		}
		if ent, ok := c.Entity(r.Key); ok && ent.Type == EntityLink {
			return r.Key
		}
	}
	return -1
}

func stylesAt(b Block, offset int) map[InlineStyle]bool {
	active := make(map[InlineStyle]bool)
	for _, r := range b.InlineStyleRanges {
		if offset >= r.Offset && offset < r.Offset+r.Length {
			active[r.Style] = true
		}
	}
	return active
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
