package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTextStretchesStyles(t *testing.T) {
	e := NewEditor()
	e.InsertText("bold")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 4})
	e.ToggleInlineStyle(StyleBold)

	// Typing inside a styled span extends it; typing after it does not.
	e.SetCursor(Position{Block: 0, Offset: 2})
	e.InsertText("xx")
	doc := e.Content()
	require.Len(t, doc.Blocks[0].InlineStyleRanges, 1)
	assert.Equal(t, StyleRange{Offset: 0, Length: 6, Style: StyleBold}, doc.Blocks[0].InlineStyleRanges[0])
	assert.Equal(t, "boxxld", doc.Blocks[0].Text)

	e.SetCursor(Position{Block: 0, Offset: 6})
	e.InsertText("!")
	doc = e.Content()
	assert.Equal(t, 6, doc.Blocks[0].InlineStyleRanges[0].Length)
}

func TestInsertTextReplacesSelection(t *testing.T) {
	e := NewEditor()
	e.InsertText("Hello")
	e.SplitBlock()
	e.InsertText("World")

	e.Select(Position{Block: 0, Offset: 2}, Position{Block: 1, Offset: 3})
	e.InsertText("-")

	doc := e.Content()
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "He-ld", doc.Blocks[0].Text)
	assert.Equal(t, Position{Block: 0, Offset: 3}, e.Cursor())
}

func TestInsertTextIgnoredOnAtomicBlock(t *testing.T) {
	e := NewEditor()
	e.InsertText("before")
	e.InsertAtomicBlock(NewImageEntity("x.png", ""))
	e.SetCursor(Position{Block: 1, Offset: 1})
	e.InsertText("nope")
	assert.Equal(t, " ", e.Content().Blocks[1].Text)
}

func TestSplitBlockCutsStraddlingRanges(t *testing.T) {
	e := NewEditor()
	e.InsertText("HelloWorld")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 10})
	e.ToggleInlineStyle(StyleBold)
	e.SetCursor(Position{Block: 0, Offset: 5})
	e.SplitBlock()

	doc := e.Content()
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "Hello", doc.Blocks[0].Text)
	assert.Equal(t, "World", doc.Blocks[1].Text)
	assert.Equal(t, []StyleRange{{Offset: 0, Length: 5, Style: StyleBold}}, doc.Blocks[0].InlineStyleRanges)
	assert.Equal(t, []StyleRange{{Offset: 0, Length: 5, Style: StyleBold}}, doc.Blocks[1].InlineStyleRanges)
	assert.Equal(t, Position{Block: 1, Offset: 0}, e.Cursor())
	assert.NotEqual(t, doc.Blocks[0].Key, doc.Blocks[1].Key)
}

func TestSplitBlockKeepsType(t *testing.T) {
	e := NewEditor()
	e.InsertText("item")
	e.ToggleBlockType(BlockUnorderedItem)
	e.SetCursor(Position{Block: 0, Offset: 4})
	e.SplitBlock()
	assert.Equal(t, BlockUnorderedItem, e.Content().Blocks[1].Type)
}

func TestToggleBlockTypeTogglesBack(t *testing.T) {
	e := NewEditor()
	e.ToggleBlockType(BlockHeaderTwo)
	assert.Equal(t, BlockHeaderTwo, e.Content().Blocks[0].Type)
	e.ToggleBlockType(BlockHeaderTwo)
	assert.Equal(t, BlockUnstyled, e.Content().Blocks[0].Type)
}

func TestToggleInlineStyleAppliesAndRemoves(t *testing.T) {
	e := NewEditor()
	e.InsertText("emphasis")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 8})
	e.ToggleInlineStyle(StyleItalic)
	require.Equal(t, []StyleRange{{Offset: 0, Length: 8, Style: StyleItalic}}, e.Content().Blocks[0].InlineStyleRanges)

	// A partially styled selection is styled fully, not cleared.
	e.Select(Position{Block: 0, Offset: 4}, Position{Block: 0, Offset: 8})
	e.ToggleInlineStyle(StyleBold)
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 8})
	e.ToggleInlineStyle(StyleBold)
	styles := e.Content().Blocks[0].InlineStyleRanges
	assert.Contains(t, styles, StyleRange{Offset: 0, Length: 8, Style: StyleBold})

	// Now every rune is bold, so toggling removes it.
	e.ToggleInlineStyle(StyleBold)
	for _, r := range e.Content().Blocks[0].InlineStyleRanges {
		assert.NotEqual(t, StyleBold, r.Style)
	}
}

func TestMarkerConversionAtBlockEnd(t *testing.T) {
	for marker, want := range markerTypes {
		e := NewEditor()
		e.InsertText(marker)
		require.True(t, e.HandleBeforeInput(' '), "marker %q", marker)
		b := e.Content().Blocks[0]
		assert.Equal(t, want, b.Type, "marker %q", marker)
		assert.Equal(t, "", b.Text, "marker %q", marker)
	}
}

func TestMarkerDoesNotFireMidText(t *testing.T) {
	e := NewEditor()
	e.InsertText("# heading text")
	e.SetCursor(Position{Block: 0, Offset: 1})
	assert.False(t, e.HandleBeforeInput(' '))
	assert.Equal(t, BlockUnstyled, e.Content().Blocks[0].Type)
}

func TestMarkerRequiresExactText(t *testing.T) {
	e := NewEditor()
	e.InsertText("x#")
	assert.False(t, e.HandleBeforeInput(' '))
}

func TestDividerShortcut(t *testing.T) {
	e := NewEditor()
	e.InsertText("---")
	require.True(t, e.HandleBeforeInput(' '))

	doc := e.Content()
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, BlockAtomic, doc.Blocks[0].Type)
	ent, ok := doc.Entity(doc.Blocks[0].EntityRanges[0].Key)
	require.True(t, ok)
	assert.Equal(t, EntityDivider, ent.Type)
	assert.Equal(t, BlockUnstyled, doc.Blocks[1].Type)
	assert.Equal(t, Position{Block: 1, Offset: 0}, e.Cursor())
}

func TestHandleReturnRevertsEmptyHeading(t *testing.T) {
	e := NewEditor()
	e.ToggleBlockType(BlockHeaderOne)
	e.HandleReturn()

	doc := e.Content()
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, BlockUnstyled, doc.Blocks[0].Type)
}

func TestHandleReturnSplitsNonEmptyHeading(t *testing.T) {
	e := NewEditor()
	e.InsertText("Title")
	e.ToggleBlockType(BlockHeaderOne)
	e.HandleReturn()
	doc := e.Content()
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, BlockHeaderOne, doc.Blocks[0].Type)
}

func TestInsertAtomicBlockSplitsText(t *testing.T) {
	e := NewEditor()
	e.InsertText("HelloWorld")
	e.SetCursor(Position{Block: 0, Offset: 5})
	e.InsertAtomicBlock(NewImageEntity("pic.png", "pic"))

	doc := e.Content()
	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, "Hello", doc.Blocks[0].Text)
	assert.Equal(t, BlockAtomic, doc.Blocks[1].Type)
	assert.Equal(t, "World", doc.Blocks[2].Text)
	assert.Equal(t, Position{Block: 2, Offset: 0}, e.Cursor())

	ent, ok := doc.Entity(doc.Blocks[1].EntityRanges[0].Key)
	require.True(t, ok)
	assert.Equal(t, EntityImage, ent.Type)
	assert.Equal(t, Immutable, ent.Mutability)
}

func TestSetLinkCreatesAndUpdatesInPlace(t *testing.T) {
	e := NewEditor()
	e.InsertText("click here please")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 10})
	e.SetLink("https://a.example")

	doc := e.Content()
	require.Len(t, doc.Blocks[0].EntityRanges, 1)
	key := doc.Blocks[0].EntityRanges[0].Key
	ent, _ := doc.Entity(key)
	assert.Equal(t, "https://a.example", ent.Data["url"])

	// A selection inside the existing link edits its URL without adding
	// a second entity range.
	e.Select(Position{Block: 0, Offset: 2}, Position{Block: 0, Offset: 8})
	e.SetLink("https://b.example")
	doc = e.Content()
	require.Len(t, doc.Blocks[0].EntityRanges, 1)
	ent, _ = doc.Entity(key)
	assert.Equal(t, "https://b.example", ent.Data["url"])
}

func TestSetLinkDisplacesOverlappingLink(t *testing.T) {
	e := NewEditor()
	e.InsertText("one two three")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 7})
	e.SetLink("https://a.example")
	e.Select(Position{Block: 0, Offset: 4}, Position{Block: 0, Offset: 13})
	e.SetLink("https://b.example")

	ranges := e.Content().Blocks[0].EntityRanges
	require.Len(t, ranges, 2)
	assert.Equal(t, EntityRange{Offset: 0, Length: 4, Key: ranges[0].Key}, ranges[0])
	assert.Equal(t, EntityRange{Offset: 4, Length: 9, Key: ranges[1].Key}, ranges[1])
}

func TestMutableEntityStretchesOnInsert(t *testing.T) {
	e := NewEditor()
	e.InsertText("link")
	e.Select(Position{Block: 0, Offset: 0}, Position{Block: 0, Offset: 4})
	e.SetLink("https://example.com")

	e.SetCursor(Position{Block: 0, Offset: 2})
	e.InsertText("ed ")
	r := e.Content().Blocks[0].EntityRanges[0]
	assert.Equal(t, 7, r.Length)
}

func TestNewEditorForEmptyDocument(t *testing.T) {
	e := NewEditorFor(Content{})
	require.Len(t, e.Content().Blocks, 1)
	assert.Equal(t, BlockUnstyled, e.Content().Blocks[0].Type)
}

func TestNewEditorForAvoidsKeyCollisions(t *testing.T) {
	e := NewEditorFor(Content{Blocks: []Block{{Key: "b0001", Type: BlockUnstyled, Text: "x"}}})
	e.SetCursor(Position{Block: 0, Offset: 1})
	e.SplitBlock()
	doc := e.Content()
	assert.NotEqual(t, doc.Blocks[0].Key, doc.Blocks[1].Key)
}
