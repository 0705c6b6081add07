package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "users", ID: u.uuid.String()}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &u.uuid)
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("users", u.uuid)
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "users", &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// BusinessID is a typed ID for businesses
type BusinessID struct {
	uuid uuid.UUID
}

func NewBusinessID() BusinessID {
	return BusinessID{uuid: uuid.New()}
}

func ParseBusinessID(s string) (BusinessID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return BusinessID{}, fmt.Errorf("invalid business ID: %w", err)
	}
	return BusinessID{uuid: id}, nil
}

func (b BusinessID) UUID() uuid.UUID { return b.uuid }
func (b BusinessID) String() string  { return b.uuid.String() }
func (b BusinessID) IsZero() bool    { return b.uuid == uuid.Nil }

func (b BusinessID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "businesses", ID: b.uuid.String()}
}

func (b BusinessID) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.uuid.String())
}

func (b *BusinessID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &b.uuid)
}

func (b BusinessID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("businesses", b.uuid)
}

func (b *BusinessID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "businesses", &b.uuid)
}

func (b BusinessID) Value() (driver.Value, error) {
	if b.IsZero() {
		return nil, nil
	}
	return b.uuid.String(), nil
}

func (b *BusinessID) Scan(value any) error {
	return scanUUID(value, &b.uuid)
}

func (BusinessID) GormDataType() string { return "uuid" }

// ContactID is a typed ID for contacts
type ContactID struct {
	uuid uuid.UUID
}

func NewContactID() ContactID {
	return ContactID{uuid: uuid.New()}
}

func ParseContactID(s string) (ContactID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ContactID{}, fmt.Errorf("invalid contact ID: %w", err)
	}
	return ContactID{uuid: id}, nil
}

func (c ContactID) UUID() uuid.UUID { return c.uuid }
func (c ContactID) String() string  { return c.uuid.String() }
func (c ContactID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c ContactID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "contacts", ID: c.uuid.String()}
}

func (c ContactID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *ContactID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &c.uuid)
}

func (c ContactID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("contacts", c.uuid)
}

func (c *ContactID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "contacts", &c.uuid)
}

func (c ContactID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *ContactID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (ContactID) GormDataType() string { return "uuid" }

// NoteID is a typed ID for notes
type NoteID struct {
	uuid uuid.UUID
}

func NewNoteID() NoteID {
	return NoteID{uuid: uuid.New()}
}

func ParseNoteID(s string) (NoteID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NoteID{}, fmt.Errorf("invalid note ID: %w", err)
	}
	return NoteID{uuid: id}, nil
}

func (n NoteID) UUID() uuid.UUID { return n.uuid }
func (n NoteID) String() string  { return n.uuid.String() }
func (n NoteID) IsZero() bool    { return n.uuid == uuid.Nil }

func (n NoteID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "notes", ID: n.uuid.String()}
}

func (n NoteID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.uuid.String())
}

func (n *NoteID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &n.uuid)
}

func (n NoteID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("notes", n.uuid)
}

func (n *NoteID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "notes", &n.uuid)
}

func (n NoteID) Value() (driver.Value, error) {
	if n.IsZero() {
		return nil, nil
	}
	return n.uuid.String(), nil
}

func (n *NoteID) Scan(value any) error {
	return scanUUID(value, &n.uuid)
}

func (NoteID) GormDataType() string { return "uuid" }

// DocumentID is a typed ID for document metadata records
type DocumentID struct {
	uuid uuid.UUID
}

func NewDocumentID() DocumentID {
	return DocumentID{uuid: uuid.New()}
}

func ParseDocumentID(s string) (DocumentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, fmt.Errorf("invalid document ID: %w", err)
	}
	return DocumentID{uuid: id}, nil
}

func (d DocumentID) UUID() uuid.UUID { return d.uuid }
func (d DocumentID) String() string  { return d.uuid.String() }
func (d DocumentID) IsZero() bool    { return d.uuid == uuid.Nil }

func (d DocumentID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "documents", ID: d.uuid.String()}
}

func (d DocumentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.uuid.String())
}

func (d *DocumentID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &d.uuid)
}

func (d DocumentID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("documents", d.uuid)
}

func (d *DocumentID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "documents", &d.uuid)
}

func (d DocumentID) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.uuid.String(), nil
}

func (d *DocumentID) Scan(value any) error {
	return scanUUID(value, &d.uuid)
}

func (DocumentID) GormDataType() string { return "uuid" }

// TaskID is a typed ID for tasks
type TaskID struct {
	uuid uuid.UUID
}

func NewTaskID() TaskID {
	return TaskID{uuid: uuid.New()}
}

func ParseTaskID(s string) (TaskID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, fmt.Errorf("invalid task ID: %w", err)
	}
	return TaskID{uuid: id}, nil
}

func (t TaskID) UUID() uuid.UUID { return t.uuid }
func (t TaskID) String() string  { return t.uuid.String() }
func (t TaskID) IsZero() bool    { return t.uuid == uuid.Nil }

func (t TaskID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "tasks", ID: t.uuid.String()}
}

func (t TaskID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.uuid.String())
}

func (t *TaskID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &t.uuid)
}

func (t TaskID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("tasks", t.uuid)
}

func (t *TaskID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "tasks", &t.uuid)
}

func (t TaskID) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.uuid.String(), nil
}

func (t *TaskID) Scan(value any) error {
	return scanUUID(value, &t.uuid)
}

func (TaskID) GormDataType() string { return "uuid" }

// ArticleID is a typed ID for saved news articles
type ArticleID struct {
	uuid uuid.UUID
}

func NewArticleID() ArticleID {
	return ArticleID{uuid: uuid.New()}
}

func ParseArticleID(s string) (ArticleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ArticleID{}, fmt.Errorf("invalid article ID: %w", err)
	}
	return ArticleID{uuid: id}, nil
}

func (a ArticleID) UUID() uuid.UUID { return a.uuid }
func (a ArticleID) String() string  { return a.uuid.String() }
func (a ArticleID) IsZero() bool    { return a.uuid == uuid.Nil }

func (a ArticleID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "articles", ID: a.uuid.String()}
}

func (a ArticleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.uuid.String())
}

func (a *ArticleID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &a.uuid)
}

func (a ArticleID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("articles", a.uuid)
}

func (a *ArticleID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "articles", &a.uuid)
}

func (a ArticleID) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	return a.uuid.String(), nil
}

func (a *ArticleID) Scan(value any) error {
	return scanUUID(value, &a.uuid)
}

func (ArticleID) GormDataType() string { return "uuid" }

// Helper functions

func unmarshalJSONID(data []byte, target *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = id
	return nil
}

// marshalCBORID encodes a typed ID as a SurrealDB RecordID.
// SurrealDB uses CBOR tag 8 with [table, id] content for record references.
func marshalCBORID(table string, id uuid.UUID) ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{table, id.String()},
	})
}

// scanUUID is a helper for implementing sql.Scanner for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling a SurrealDB RecordID from CBOR.
// The RecordID is encoded as [table_name, id_string] within CBOR tag 8.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
