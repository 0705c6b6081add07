package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	e := NewEditor()
	e.InsertText("Quarterly research")
	e.ToggleBlockType(BlockHeaderOne)
	e.SplitBlock()
	e.InsertText("Spoke with the founder about pricing.")
	e.Select(Position{Block: 1, Offset: 11}, Position{Block: 1, Offset: 18})
	e.ToggleInlineStyle(StyleBold)
	e.SetLink("https://example.com/founder")
	e.SetCursor(Position{Block: 1, Offset: 37})
	e.InsertAtomicBlock(NewTableEntity(3, 2))
	doc := e.Content()

	raw, err := Marshal(doc)
	require.NoError(t, err)

	decoded, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestUnmarshalBadJSON(t *testing.T) {
	_, err := Unmarshal(`{"blocks": [`)
	var malformed *MalformedContentError
	require.ErrorAs(t, err, &malformed)
}

func TestUnmarshalDanglingEntityReference(t *testing.T) {
	raw := `{
		"blocks": [{
			"key": "a", "text": "hi", "type": "unstyled", "depth": 0,
			"inlineStyleRanges": [],
			"entityRanges": [{"offset": 0, "length": 2, "key": 7}]
		}],
		"entityMap": {}
	}`
	_, err := Unmarshal(raw)
	var malformed *MalformedContentError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "entity")
}

func TestUnmarshalRangeOutOfBounds(t *testing.T) {
	raw := `{
		"blocks": [{
			"key": "a", "text": "hi", "type": "unstyled", "depth": 0,
			"inlineStyleRanges": [{"offset": 0, "length": 10, "style": "BOLD"}],
			"entityRanges": []
		}],
		"entityMap": {}
	}`
	_, err := Unmarshal(raw)
	var malformed *MalformedContentError
	require.ErrorAs(t, err, &malformed)
}

// Range bounds count runes, not bytes. A 5-character accented word is
// 5 positions long even though it encodes to more bytes.
func TestUnmarshalMultibyteRange(t *testing.T) {
	raw := `{
		"blocks": [{
			"key": "a", "text": "héllo", "type": "unstyled", "depth": 0,
			"inlineStyleRanges": [{"offset": 0, "length": 5, "style": "BOLD"}],
			"entityRanges": []
		}],
		"entityMap": {}
	}`
	doc, err := Unmarshal(raw)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, 5, doc.Blocks[0].InlineStyleRanges[0].Length)
}

func TestUnmarshalDuplicateBlockKeys(t *testing.T) {
	raw := `{
		"blocks": [
			{"key": "a", "text": "one", "type": "unstyled", "depth": 0, "inlineStyleRanges": [], "entityRanges": []},
			{"key": "a", "text": "two", "type": "unstyled", "depth": 0, "inlineStyleRanges": [], "entityRanges": []}
		],
		"entityMap": {}
	}`
	_, err := Unmarshal(raw)
	var malformed *MalformedContentError
	require.ErrorAs(t, err, &malformed)
}

func TestMalformedContentErrorUnwrap(t *testing.T) {
	_, err := Unmarshal(`not json at all`)
	var malformed *MalformedContentError
	require.ErrorAs(t, err, &malformed)
	assert.NotNil(t, errors.Unwrap(malformed))
}
