package content

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MalformedContentError reports stored content that cannot be decoded into a
// valid document: either the JSON itself is broken or the structure violates
// a document invariant (e.g. an entity range referencing a key absent from
// the entity map). Callers branch on it with errors.As; the render path
// recovers it into a placeholder instead of failing the read.
type MalformedContentError struct {
	Reason string
	Err    error
}

func (e *MalformedContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed content: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed content: %s", e.Reason)
}

func (e *MalformedContentError) Unwrap() error { return e.Err }

// Marshal serializes a document to its JSON wire form. The output is
// normalized (empty slices instead of nulls, ranges sorted by offset) so
// Marshal is deterministic for structurally equal documents.
func Marshal(c Content) (string, error) {
	data, err := json.Marshal(c.normalized())
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}
	return string(data), nil
}

// Unmarshal is the inverse of [Marshal]. It fails with a
// *MalformedContentError when the input is not well-formed JSON or when a
// block references an entity key missing from the entity map; it never
// panics on hostile input.
func Unmarshal(raw string) (Content, error) {
	var c Content
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Content{}, &MalformedContentError{Reason: "invalid JSON", Err: err}
	}
	if err := validate(c); err != nil {
		return Content{}, err
	}
	return c.normalized(), nil
}

// validate enforces the structural invariants of the document shape:
// resolvable entity references, in-bounds ranges, unique block keys.
func validate(c Content) error {
	seen := make(map[string]bool, len(c.Blocks))
	for i, b := range c.Blocks {
		if b.Key != "" {
			if seen[b.Key] {
				return &MalformedContentError{Reason: fmt.Sprintf("duplicate block key %q", b.Key)}
			}
			seen[b.Key] = true
		}
		textLen := len([]rune(b.Text))
		for _, r := range b.InlineStyleRanges {
			if r.Offset < 0 || r.Length < 0 || r.Offset+r.Length > textLen {
				return &MalformedContentError{
					Reason: fmt.Sprintf("style range [%d,%d) out of bounds in block %d", r.Offset, r.Offset+r.Length, i),
				}
			}
		}
		for _, r := range b.EntityRanges {
			if r.Offset < 0 || r.Length < 0 || r.Offset+r.Length > textLen {
				return &MalformedContentError{
					Reason: fmt.Sprintf("entity range [%d,%d) out of bounds in block %d", r.Offset, r.Offset+r.Length, i),
				}
			}
			if _, ok := c.EntityMap[strconv.Itoa(r.Key)]; !ok {
				return &MalformedContentError{
					Reason: fmt.Sprintf("block %d references entity %d absent from entity map", i, r.Key),
				}
			}
		}
	}
	return nil
}
