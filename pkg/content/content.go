// Package content implements the rich-text document model used for note
// content: an ordered sequence of typed blocks carrying inline style ranges
// and references into an out-of-line entity map.
//
// The wire format produced by [Marshal] is the raw-state JSON shape the web
// editor persists: {"blocks": [...], "entityMap": {...}}. Block and entity
// type names ("unstyled", "header-one", "LINK", ...) are part of that format
// and must not be renamed.
//
// Three concerns live here:
//
//   - the model itself and an [Editor] over it (cursor operations, block
//     splitting, markdown-style shortcut conversion)
//   - the codec ([Marshal]/[Unmarshal]) with structural validation
//   - the HTML projector ([Render]/[RenderStored])
//
// Rendering never fails: stored content that does not parse degrades to an
// explicit placeholder rather than propagating an error up the read path.
package content

import (
	"sort"
	"strconv"
)

// BlockType identifies the presentation role of a block.
type BlockType string

const (
	BlockUnstyled      BlockType = "unstyled"
	BlockHeaderOne     BlockType = "header-one"
	BlockHeaderTwo     BlockType = "header-two"
	BlockHeaderThree   BlockType = "header-three"
	BlockUnorderedItem BlockType = "unordered-list-item"
	BlockOrderedItem   BlockType = "ordered-list-item"
	BlockQuote         BlockType = "blockquote"
	BlockCode          BlockType = "code-block"
	BlockAtomic        BlockType = "atomic"
)

// InlineStyle is an inline formatting tag applied over a character range.
type InlineStyle string

const (
	StyleBold          InlineStyle = "BOLD"
	StyleItalic        InlineStyle = "ITALIC"
	StyleUnderline     InlineStyle = "UNDERLINE"
	StyleStrikethrough InlineStyle = "STRIKETHROUGH"
	StyleCode          InlineStyle = "CODE"
)

// EntityType identifies an out-of-line annotation.
type EntityType string

const (
	EntityLink    EntityType = "LINK"
	EntityImage   EntityType = "IMAGE"
	EntityDivider EntityType = "DIVIDER"
	EntityTable   EntityType = "TABLE"
)

// Mutability controls whether the text backing an entity range may be edited
// in place. Immutable entities (images, dividers, tables) can only be
// replaced wholesale; mutable ones (links) keep their annotation as the
// covered text changes.
type Mutability string

const (
	Mutable   Mutability = "MUTABLE"
	Immutable Mutability = "IMMUTABLE"
)

// StyleRange applies one inline style over [Offset, Offset+Length) of a
// block's text. Offsets count runes.
type StyleRange struct {
	Offset int         `json:"offset"`
	Length int         `json:"length"`
	Style  InlineStyle `json:"style"`
}

// EntityRange binds [Offset, Offset+Length) of a block's text to the entity
// stored under strconv.Itoa(Key) in the document's entity map.
type EntityRange struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
	Key    int `json:"key"`
}

// Block is one addressable unit of document content, in reading order.
type Block struct {
	Key               string        `json:"key"`
	Text              string        `json:"text"`
	Type              BlockType     `json:"type"`
	Depth             int           `json:"depth"`
	InlineStyleRanges []StyleRange  `json:"inlineStyleRanges"`
	EntityRanges      []EntityRange `json:"entityRanges"`
}

// Entity is an out-of-line annotation referenced by key from zero or more
// block entity ranges.
type Entity struct {
	Type       EntityType     `json:"type"`
	Mutability Mutability     `json:"mutability"`
	Data       map[string]any `json:"data"`
}

// Content is the serialized form of a document: blocks in reading order plus
// the entity map. Every EntityRange key must resolve in EntityMap; the codec
// enforces this on decode and entity keys are allocated monotonically within
// an editing session, so a serialized document never contains a forward
// reference to an undefined entity.
type Content struct {
	Blocks    []Block           `json:"blocks"`
	EntityMap map[string]Entity `json:"entityMap"`
}

// NewLinkEntity returns a mutable link annotation. Links stay mutable so the
// URL can be edited later without replacing the covered text.
func NewLinkEntity(url string) Entity {
	return Entity{Type: EntityLink, Mutability: Mutable, Data: map[string]any{"url": url}}
}

// NewImageEntity returns an immutable image annotation.
func NewImageEntity(src, alt string) Entity {
	return Entity{Type: EntityImage, Mutability: Immutable, Data: map[string]any{"src": src, "alt": alt}}
}

// NewDividerEntity returns an immutable horizontal-rule annotation.
func NewDividerEntity() Entity {
	return Entity{Type: EntityDivider, Mutability: Immutable, Data: map[string]any{}}
}

// NewTableEntity returns an immutable rows x cols table annotation.
// Dimensions are stored as float64, matching how JSON numbers decode, so a
// document round-trips to structural equality.
func NewTableEntity(rows, cols int) Entity {
	return Entity{Type: EntityTable, Mutability: Immutable, Data: map[string]any{
		"rows": float64(rows),
		"cols": float64(cols),
	}}
}

// AddEntity stores e under the next monotonic key and returns that key for
// use in an EntityRange.
func (c *Content) AddEntity(e Entity) int {
	if c.EntityMap == nil {
		c.EntityMap = make(map[string]Entity)
	}
	key := 0
	for k := range c.EntityMap {
		if n, err := strconv.Atoi(k); err == nil && n >= key {
			key = n + 1
		}
	}
	c.EntityMap[strconv.Itoa(key)] = e
	return key
}

// Entity resolves an EntityRange key against the entity map.
func (c Content) Entity(key int) (Entity, bool) {
	e, ok := c.EntityMap[strconv.Itoa(key)]
	return e, ok
}

// normalized returns a copy with nil slices and maps replaced by their empty
// equivalents and ranges sorted by offset, so that structurally equal
// documents compare equal regardless of construction order.
func (c Content) normalized() Content {
	out := Content{
		Blocks:    make([]Block, len(c.Blocks)),
		EntityMap: make(map[string]Entity, len(c.EntityMap)),
	}
	for i, b := range c.Blocks {
		nb := b
		nb.InlineStyleRanges = append([]StyleRange(nil), b.InlineStyleRanges...)
		nb.EntityRanges = append([]EntityRange(nil), b.EntityRanges...)
		if nb.InlineStyleRanges == nil {
			nb.InlineStyleRanges = []StyleRange{}
		}
		if nb.EntityRanges == nil {
			nb.EntityRanges = []EntityRange{}
		}
		sort.SliceStable(nb.InlineStyleRanges, func(x, y int) bool {
			a, b := nb.InlineStyleRanges[x], nb.InlineStyleRanges[y]
			if a.Offset != b.Offset {
				return a.Offset < b.Offset
			}
			return a.Style < b.Style
		})
		sort.SliceStable(nb.EntityRanges, func(x, y int) bool {
			return nb.EntityRanges[x].Offset < nb.EntityRanges[y].Offset
		})
		out.Blocks[i] = nb
	}
	for k, v := range c.EntityMap {
		if v.Data == nil {
			v.Data = map[string]any{}
		}
		out.EntityMap[k] = v
	}
	return out
}
