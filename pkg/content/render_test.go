package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBlockTypes(t *testing.T) {
	doc := Content{
		Blocks: []Block{
			{Key: "a", Type: BlockHeaderOne, Text: "Title"},
			{Key: "b", Type: BlockHeaderTwo, Text: "Section"},
			{Key: "c", Type: BlockUnstyled, Text: "Body text"},
			{Key: "d", Type: BlockQuote, Text: "A quote"},
			{Key: "e", Type: BlockCode, Text: "x < y"},
		},
	}
	assert.Equal(t,
		"<h1>Title</h1><h2>Section</h2><p>Body text</p>"+
			"<blockquote>A quote</blockquote><pre><code>x &lt; y</code></pre>",
		Render(doc))
}

func TestRenderGroupsListItems(t *testing.T) {
	doc := Content{
		Blocks: []Block{
			{Key: "a", Type: BlockUnorderedItem, Text: "one"},
			{Key: "b", Type: BlockUnorderedItem, Text: "two"},
			{Key: "c", Type: BlockOrderedItem, Text: "three"},
			{Key: "d", Type: BlockUnstyled, Text: "after"},
		},
	}
	assert.Equal(t,
		"<ul><li>one</li><li>two</li></ul><ol><li>three</li></ol><p>after</p>",
		Render(doc))
}

func TestRenderInlineStyles(t *testing.T) {
	doc := Content{
		Blocks: []Block{{
			Key: "a", Type: BlockUnstyled, Text: "bold and code",
			InlineStyleRanges: []StyleRange{
				{Offset: 0, Length: 4, Style: StyleBold},
				{Offset: 9, Length: 4, Style: StyleCode},
			},
		}},
	}
	assert.Equal(t, "<p><strong>bold</strong> and <code>code</code></p>", Render(doc))
}

func TestRenderNestedStylesDeterministic(t *testing.T) {
	doc := Content{
		Blocks: []Block{{
			Key: "a", Type: BlockUnstyled, Text: "both",
			InlineStyleRanges: []StyleRange{
				{Offset: 0, Length: 4, Style: StyleItalic},
				{Offset: 0, Length: 4, Style: StyleBold},
			},
		}},
	}
	// Bold always nests outside italic regardless of range order.
	assert.Equal(t, "<p><strong><em>both</em></strong></p>", Render(doc))
}

func TestRenderLink(t *testing.T) {
	doc := Content{
		Blocks: []Block{{
			Key: "a", Type: BlockUnstyled, Text: "visit docs now",
			EntityRanges: []EntityRange{{Offset: 6, Length: 4, Key: 0}},
		}},
		EntityMap: map[string]Entity{"0": NewLinkEntity("https://example.com")},
	}
	assert.Equal(t,
		`<p>visit <a href="https://example.com" target="_blank" rel="noopener">docs</a> now</p>`,
		Render(doc))
}

func TestRenderAtomicEntities(t *testing.T) {
	newDoc := func(ent Entity) Content {
		return Content{
			Blocks: []Block{{
				Key: "a", Type: BlockAtomic, Text: " ",
				EntityRanges: []EntityRange{{Offset: 0, Length: 1, Key: 0}},
			}},
			EntityMap: map[string]Entity{"0": ent},
		}
	}

	assert.Equal(t, `<img src="pic.png" alt="a chart">`, Render(newDoc(NewImageEntity("pic.png", "a chart"))))
	assert.Equal(t, "<hr>", Render(newDoc(NewDividerEntity())))
	assert.Equal(t,
		"<table><tbody>"+
			"<tr><td>Header</td><td>Header</td></tr>"+
			"<tr><td>Cell</td><td>Cell</td></tr>"+
			"</tbody></table>",
		Render(newDoc(NewTableEntity(2, 2))))

	// Unrecognized entity types contribute nothing rather than failing.
	assert.Equal(t, "", Render(newDoc(Entity{Type: "VIDEO", Mutability: Immutable})))
}

func TestRenderEscapesText(t *testing.T) {
	doc := Content{
		Blocks: []Block{{Key: "a", Type: BlockUnstyled, Text: `<script>alert("x")</script>`}},
	}
	assert.NotContains(t, Render(doc), "<script>")
}

func TestRenderDeterministic(t *testing.T) {
	e := NewEditor()
	e.InsertText("alpha beta")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 5})
	e.ToggleInlineStyle(StyleBold)
	e.Select(Position{Block: 0, Offset: 6}, Position{Block: 0, Offset: 10})
	e.SetLink("https://example.com")
	doc := e.Content()

	first := Render(doc)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Render(doc))
	}
}

func TestRenderStoredRecoversMalformed(t *testing.T) {
	assert.Equal(t, Placeholder, RenderStored(`{"blocks": [`))

	raw, err := Marshal(Content{Blocks: []Block{{Key: "a", Type: BlockUnstyled, Text: "ok"}}})
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", RenderStored(raw))
}
