package content

import "fmt"

// Position addresses a cursor location: a block index and a rune offset
// within that block's text.
type Position struct {
	Block  int
	Offset int
}

func (p Position) before(q Position) bool {
	if p.Block != q.Block {
		return p.Block < q.Block
	}
	return p.Offset < q.Offset
}

// markerTypes maps the leading-marker shortcuts to the block type they
// convert an empty block into when followed by a space.
var markerTypes = map[string]BlockType{
	"#":   BlockHeaderOne,
	"##":  BlockHeaderTwo,
	"###": BlockHeaderThree,
	"-":   BlockUnorderedItem,
	"*":   BlockUnorderedItem,
	"1.":  BlockOrderedItem,
	">":   BlockQuote,
	"```": BlockCode,
}

// Editor applies editing operations to a document. It tracks a selection as
// an anchor/focus pair of positions; a collapsed selection is the cursor.
// Editors are not safe for concurrent use.
type Editor struct {
	content  Content
	anchor   Position
	focus    Position
	blockSeq int
}

// NewEditor returns an editor over a document containing a single empty
// paragraph, cursor at its start.
func NewEditor() *Editor {
	e := &Editor{content: Content{EntityMap: map[string]Entity{}}}
	e.content.Blocks = []Block{e.newBlock(BlockUnstyled)}
	return e
}

// NewEditorFor returns an editor over an existing document, cursor at the
// start of the first block. The document must contain at least one block;
// an empty one gets a starting paragraph.
func NewEditorFor(c Content) *Editor {
	e := &Editor{content: c.normalized()}
	if len(e.content.Blocks) == 0 {
		e.content.Blocks = []Block{e.newBlock(BlockUnstyled)}
	}
	return e
}

// Content returns the current document.
func (e *Editor) Content() Content { return e.content.normalized() }

// Cursor returns the focus position of the selection.
func (e *Editor) Cursor() Position { return e.focus }

// SetCursor collapses the selection to a single position.
func (e *Editor) SetCursor(p Position) {
	e.anchor = p
	e.focus = p
}

// Select sets a ranged selection.
func (e *Editor) Select(anchor, focus Position) {
	e.anchor = anchor
	e.focus = focus
}

func (e *Editor) ordered() (Position, Position) {
	if e.focus.before(e.anchor) {
		return e.focus, e.anchor
	}
	return e.anchor, e.focus
}

func (e *Editor) collapsed() bool { return e.anchor == e.focus }

func (e *Editor) newBlock(t BlockType) Block {
	for {
		e.blockSeq++
		key := fmt.Sprintf("b%04d", e.blockSeq)
		if !e.blockKeyUsed(key) {
			return Block{Key: key, Type: t, InlineStyleRanges: []StyleRange{}, EntityRanges: []EntityRange{}}
		}
	}
}

func (e *Editor) blockKeyUsed(key string) bool {
	for _, b := range e.content.Blocks {
		if b.Key == key {
			return true
		}
	}
	return false
}

// InsertText inserts s at the cursor, replacing the selection if one is
// active. Style ranges covering the insertion point stretch over the new
// text; immutable entity ranges do not. Atomic blocks reject text edits.
func (e *Editor) InsertText(s string) {
	if !e.collapsed() {
		e.deleteSelection()
	}
	b := &e.content.Blocks[e.focus.Block]
	if b.Type == BlockAtomic {
		return
	}
	at := e.focus.Offset
	runes := []rune(b.Text)
	if at > len(runes) {
		at = len(runes)
	}
	n := len([]rune(s))
	b.Text = string(runes[:at]) + s + string(runes[at:])

	for i := range b.InlineStyleRanges {
		r := &b.InlineStyleRanges[i]
		switch {
		case r.Offset >= at:
			r.Offset += n
		case r.Offset+r.Length > at:
			r.Length += n
		}
	}
	for i := range b.EntityRanges {
		r := &b.EntityRanges[i]
		switch {
		case r.Offset >= at:
			r.Offset += n
		case r.Offset+r.Length > at:
			if ent, ok := e.content.Entity(r.Key); ok && ent.Mutability == Mutable {
				r.Length += n
			}
		}
	}
	e.SetCursor(Position{Block: e.focus.Block, Offset: at + n})
}

// SplitBlock splits the block at the cursor. Text and ranges after the
// cursor move into a new block of the same type immediately following; the
// cursor lands at the start of the new block.
func (e *Editor) SplitBlock() {
	idx := e.focus.Block
	at := e.focus.Offset
	b := e.content.Blocks[idx]
	runes := []rune(b.Text)
	if at > len(runes) {
		at = len(runes)
	}

	next := e.newBlock(b.Type)
	next.Depth = b.Depth
	next.Text = string(runes[at:])
	b.Text = string(runes[:at])

	// Ranges straddling the split point are cut in two: the head stays, the
	// tail re-bases at offset 0 in the new block.
	var keep []StyleRange
	for _, r := range b.InlineStyleRanges {
		start, end := r.Offset, r.Offset+r.Length
		if start < at {
			hi := min(end, at)
			if hi > start {
				keep = append(keep, StyleRange{Offset: start, Length: hi - start, Style: r.Style})
			}
		}
		if end > at {
			lo := max(start, at)
			next.InlineStyleRanges = append(next.InlineStyleRanges, StyleRange{Offset: lo - at, Length: end - lo, Style: r.Style})
		}
	}
	b.InlineStyleRanges = keep

	var keepEnt []EntityRange
	for _, r := range b.EntityRanges {
		start, end := r.Offset, r.Offset+r.Length
		if start < at {
			hi := min(end, at)
			if hi > start {
				keepEnt = append(keepEnt, EntityRange{Offset: start, Length: hi - start, Key: r.Key})
			}
		}
		if end > at {
			lo := max(start, at)
			next.EntityRanges = append(next.EntityRanges, EntityRange{Offset: lo - at, Length: end - lo, Key: r.Key})
		}
	}
	b.EntityRanges = keepEnt

	e.content.Blocks[idx] = b
	e.content.Blocks = append(e.content.Blocks[:idx+1], append([]Block{next}, e.content.Blocks[idx+1:]...)...)
	e.SetCursor(Position{Block: idx + 1, Offset: 0})
}

// ToggleBlockType switches the block containing the cursor to t, or back to
// a plain paragraph when it already has that type.
func (e *Editor) ToggleBlockType(t BlockType) {
	b := &e.content.Blocks[e.focus.Block]
	if b.Type == t {
		b.Type = BlockUnstyled
		return
	}
	b.Type = t
}

// ToggleInlineStyle toggles style over the current selection: if every
// selected rune already carries the style it is removed, otherwise it is
// applied to the whole selection. A collapsed selection is a no-op.
func (e *Editor) ToggleInlineStyle(style InlineStyle) {
	if e.collapsed() {
		return
	}
	start, end := e.ordered()
	if e.selectionFullyStyled(style, start, end) {
		e.eachSelectedSpan(start, end, func(b *Block, lo, hi int) {
			b.InlineStyleRanges = subtractStyle(b.InlineStyleRanges, style, lo, hi)
		})
		return
	}
	e.eachSelectedSpan(start, end, func(b *Block, lo, hi int) {
		b.InlineStyleRanges = mergeStyle(b.InlineStyleRanges, style, lo, hi)
	})
}

// eachSelectedSpan invokes fn once per block with the selected rune span
// within that block. Atomic blocks are skipped.
func (e *Editor) eachSelectedSpan(start, end Position, fn func(b *Block, lo, hi int)) {
	for idx := start.Block; idx <= end.Block && idx < len(e.content.Blocks); idx++ {
		b := &e.content.Blocks[idx]
		if b.Type == BlockAtomic {
			continue
		}
		lo, hi := 0, len([]rune(b.Text))
		if idx == start.Block {
			lo = start.Offset
		}
		if idx == end.Block {
			hi = end.Offset
		}
		if hi > lo {
			fn(b, lo, hi)
		}
	}
}

func (e *Editor) selectionFullyStyled(style InlineStyle, start, end Position) bool {
	full := true
	e.eachSelectedSpan(start, end, func(b *Block, lo, hi int) {
		covered := make([]bool, hi-lo)
		for _, r := range b.InlineStyleRanges {
			if r.Style != style {
				continue
			}
			for i := max(r.Offset, lo); i < min(r.Offset+r.Length, hi); i++ {
				covered[i-lo] = true
			}
		}
		for _, c := range covered {
			if !c {
				full = false
			}
		}
	})
	return full
}

// mergeStyle adds style over [lo,hi) and coalesces overlapping or adjacent
// ranges of the same style.
func mergeStyle(ranges []StyleRange, style InlineStyle, lo, hi int) []StyleRange {
	out := ranges[:0]
	for _, r := range ranges {
		if r.Style == style && r.Offset <= hi && r.Offset+r.Length >= lo {
			lo = min(lo, r.Offset)
			hi = max(hi, r.Offset+r.Length)
			continue
		}
		out = append(out, r)
	}
	return append(out, StyleRange{Offset: lo, Length: hi - lo, Style: style})
}

// subtractStyle removes style from [lo,hi), splitting ranges that straddle
// the boundary.
func subtractStyle(ranges []StyleRange, style InlineStyle, lo, hi int) []StyleRange {
	var out []StyleRange
	for _, r := range ranges {
		if r.Style != style {
			out = append(out, r)
			continue
		}
		start, end := r.Offset, r.Offset+r.Length
		if start < lo {
			out = append(out, StyleRange{Offset: start, Length: min(end, lo) - start, Style: style})
		}
		if end > hi {
			s := max(start, hi)
			out = append(out, StyleRange{Offset: s, Length: end - s, Style: style})
		}
	}
	if out == nil {
		out = []StyleRange{}
	}
	return out
}

// InsertAtomicBlock inserts an atomic block carrying a new immutable entity
// at the cursor. The remainder of the current block is displaced into a
// following block and the cursor lands at its start.
func (e *Editor) InsertAtomicBlock(ent Entity) {
	ent.Mutability = Immutable
	key := e.content.AddEntity(ent)

	e.SplitBlock()
	idx := e.focus.Block // the displaced remainder

	atomic := e.newBlock(BlockAtomic)
	atomic.Text = " "
	atomic.EntityRanges = []EntityRange{{Offset: 0, Length: 1, Key: key}}

	e.content.Blocks = append(e.content.Blocks[:idx], append([]Block{atomic}, e.content.Blocks[idx:]...)...)
	e.SetCursor(Position{Block: idx + 1, Offset: 0})
}

// SetLink creates or updates a link entity over the current selection. When
// the selection lies entirely inside one existing link range the link is
// mutable, so its URL is updated in place; otherwise a new mutable link
// entity is created and bound over the selection, displacing any link ranges
// it overlaps.
func (e *Editor) SetLink(url string) {
	if e.collapsed() {
		return
	}
	start, end := e.ordered()

	// Update in place when one existing link covers the whole selection.
	if start.Block == end.Block {
		b := e.content.Blocks[start.Block]
		for _, r := range b.EntityRanges {
			ent, ok := e.content.Entity(r.Key)
			if !ok || ent.Type != EntityLink {
				continue
			}
			if r.Offset <= start.Offset && r.Offset+r.Length >= end.Offset {
				ent.Data["url"] = url
				e.content.EntityMap[fmt.Sprint(r.Key)] = ent
				return
			}
		}
	}

	key := e.content.AddEntity(NewLinkEntity(url))
	e.eachSelectedSpan(start, end, func(b *Block, lo, hi int) {
		b.EntityRanges = e.subtractLinkRanges(b.EntityRanges, lo, hi)
		b.EntityRanges = append(b.EntityRanges, EntityRange{Offset: lo, Length: hi - lo, Key: key})
	})
}

func (e *Editor) subtractLinkRanges(ranges []EntityRange, lo, hi int) []EntityRange {
	var out []EntityRange
	for _, r := range ranges {
		ent, ok := e.content.Entity(r.Key)
		if !ok || ent.Type != EntityLink {
			out = append(out, r)
			continue
		}
		start, end := r.Offset, r.Offset+r.Length
		if start < lo {
			out = append(out, EntityRange{Offset: start, Length: min(end, lo) - start, Key: r.Key})
		}
		if end > hi {
			s := max(start, hi)
			out = append(out, EntityRange{Offset: s, Length: end - s, Key: r.Key})
		}
	}
	if out == nil {
		out = []EntityRange{}
	}
	return out
}

// HandleReturn processes Enter. An empty heading reverts to a plain
// paragraph instead of producing another heading; anything else splits the
// block at the cursor.
func (e *Editor) HandleReturn() {
	b := &e.content.Blocks[e.focus.Block]
	switch b.Type {
	case BlockHeaderOne, BlockHeaderTwo, BlockHeaderThree:
		if b.Text == "" {
			b.Type = BlockUnstyled
			return
		}
	}
	e.SplitBlock()
}

// HandleBeforeInput intercepts a typed character before insertion and
// reports whether it was consumed. A space typed when the cursor sits at the
// end of a block containing exactly a recognized marker converts the block:
// the marker text is discarded and the block takes the mapped type ("---"
// instead inserts a divider). Any other input is left for InsertText.
func (e *Editor) HandleBeforeInput(ch rune) bool {
	if ch != ' ' {
		return false
	}
	idx := e.focus.Block
	b := &e.content.Blocks[idx]
	if b.Type == BlockAtomic {
		return false
	}
	if e.focus.Offset != len([]rune(b.Text)) {
		return false
	}

	if t, ok := markerTypes[b.Text]; ok {
		b.Text = ""
		b.Type = t
		b.InlineStyleRanges = []StyleRange{}
		b.EntityRanges = []EntityRange{}
		e.SetCursor(Position{Block: idx, Offset: 0})
		return true
	}

	if b.Text == "---" {
		key := e.content.AddEntity(NewDividerEntity())
		atomic := e.newBlock(BlockAtomic)
		atomic.Text = " "
		atomic.EntityRanges = []EntityRange{{Offset: 0, Length: 1, Key: key}}
		e.content.Blocks[idx] = atomic

		after := e.newBlock(BlockUnstyled)
		e.content.Blocks = append(e.content.Blocks[:idx+1], append([]Block{after}, e.content.Blocks[idx+1:]...)...)
		e.SetCursor(Position{Block: idx + 1, Offset: 0})
		return true
	}

	return false
}

// deleteSelection removes the selected text and collapses the cursor to the
// selection start. Blocks fully inside the selection are removed; the start
// and end blocks merge.
func (e *Editor) deleteSelection() {
	start, end := e.ordered()
	if start == end {
		return
	}

	if start.Block == end.Block {
		b := &e.content.Blocks[start.Block]
		runes := []rune(b.Text)
		b.Text = string(runes[:start.Offset]) + string(runes[end.Offset:])
		removed := end.Offset - start.Offset
		b.InlineStyleRanges = contractStyleRanges(b.InlineStyleRanges, start.Offset, removed)
		b.EntityRanges = contractEntityRanges(b.EntityRanges, start.Offset, removed)
		e.SetCursor(start)
		return
	}

	first := e.content.Blocks[start.Block]
	last := e.content.Blocks[end.Block]
	firstRunes := []rune(first.Text)
	lastRunes := []rune(last.Text)

	first.Text = string(firstRunes[:start.Offset]) + string(lastRunes[end.Offset:])
	first.InlineStyleRanges = contractStyleRanges(first.InlineStyleRanges, start.Offset, len(firstRunes)-start.Offset)
	first.EntityRanges = contractEntityRanges(first.EntityRanges, start.Offset, len(firstRunes)-start.Offset)
	shift := start.Offset - end.Offset
	for _, r := range last.InlineStyleRanges {
		if r.Offset >= end.Offset {
			first.InlineStyleRanges = append(first.InlineStyleRanges, StyleRange{Offset: r.Offset + shift, Length: r.Length, Style: r.Style})
		}
	}
	for _, r := range last.EntityRanges {
		if r.Offset >= end.Offset {
			first.EntityRanges = append(first.EntityRanges, EntityRange{Offset: r.Offset + shift, Length: r.Length, Key: r.Key})
		}
	}

	e.content.Blocks[start.Block] = first
	e.content.Blocks = append(e.content.Blocks[:start.Block+1], e.content.Blocks[end.Block+1:]...)
	e.SetCursor(start)
}

func contractStyleRanges(ranges []StyleRange, at, removed int) []StyleRange {
	var out []StyleRange
	for _, r := range ranges {
		start, end := r.Offset, r.Offset+r.Length
		ns := contractOffset(start, at, removed)
		ne := contractOffset(end, at, removed)
		if ne > ns {
			out = append(out, StyleRange{Offset: ns, Length: ne - ns, Style: r.Style})
		}
	}
	if out == nil {
		out = []StyleRange{}
	}
	return out
}

func contractEntityRanges(ranges []EntityRange, at, removed int) []EntityRange {
	var out []EntityRange
	for _, r := range ranges {
		start, end := r.Offset, r.Offset+r.Length
		ns := contractOffset(start, at, removed)
		ne := contractOffset(end, at, removed)
		if ne > ns {
			out = append(out, EntityRange{Offset: ns, Length: ne - ns, Key: r.Key})
		}
	}
	if out == nil {
		out = []EntityRange{}
	}
	return out
}

func contractOffset(o, at, removed int) int {
	if o <= at {
		return o
	}
	if o >= at+removed {
		return o - removed
	}
	return at
}
