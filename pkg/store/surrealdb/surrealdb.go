// Package surrealdb implements [store.Store] on SurrealDB using native
// SurrealQL over the CBOR protocol, without an ORM.
//
// The connection is configured with the surrealcbor codec so time.Time and
// the typed record IDs marshal into SurrealDB's native formats; typed IDs
// become RecordIDs automatically through their MarshalCBOR, which keeps every
// query parameterized ($param syntax, never string interpolation).
//
// SurrealDB creates tables implicitly on first insert, so Migrate has
// nothing to do here; it exists to mirror the PostgreSQL backend.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
)

// SurrealStore implements the Store interface over one SurrealDB connection.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

var _ store.Store = (*SurrealStore)(nil)

// NewSurrealStore connects to SurrealDB at wsURL, authenticates when
// credentials are given, and selects the namespace and database.
func NewSurrealStore(wsURL, namespace, database, username, password string) (*SurrealStore, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)
	// The surrealcbor codec is required for correct time.Time and RecordID
	// round-trips; the default marshaler produces formats SurrealDB rejects.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)
	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{db: db, ns: namespace, database: database}, nil
}

// Migrate is a no-op: SurrealDB creates tables on first insert.
func (s *SurrealStore) Migrate(ctx context.Context) error { return nil }

func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// isNotFound recognizes the errors Select returns for missing records.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

// queryAll runs a SELECT returning every row of the first statement.
func queryAll[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) ([]T, error) {
	result, err := surrealdb.Query[[]T](ctx, db, query, params)
	if err != nil {
		return nil, err
	}
	if result != nil && len(*result) > 0 {
		return (*result)[0].Result, nil
	}
	return nil, nil
}

func (s *SurrealStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	existing, err := s.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return store.NewValidationError("email", "already registered")
	}

	if _, err := surrealdb.Create[models.User](ctx, s.db, "users", user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SurrealStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := queryAll[models.User](ctx, s.db, "SELECT * FROM users WHERE email = $email", map[string]any{
		"email": email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (s *SurrealStore) UpdateUser(ctx context.Context, user *models.User) error {
	existing, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.User](ctx, s.db, user.ID.RecordID(), user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *SurrealStore) CreateBusiness(ctx context.Context, business *models.Business) error {
	if business.ID.IsZero() {
		business.ID = models.NewBusinessID()
	}
	now := time.Now()
	business.CreatedAt = now
	business.UpdatedAt = now
	if _, err := surrealdb.Create[models.Business](ctx, s.db, "businesses", business); err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) (*models.Business, error) {
	business, err := surrealdb.Select[models.Business](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if business == nil || business.UserID != owner {
		return nil, nil
	}
	return business, nil
}

func (s *SurrealStore) ListBusinesses(ctx context.Context, owner models.UserID) ([]*models.Business, error) {
	rows, err := queryAll[models.Business](ctx, s.db,
		"SELECT * FROM businesses WHERE user_id = $owner ORDER BY created_at", map[string]any{
			"owner": owner.RecordID(),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) UpdateBusiness(ctx context.Context, owner models.UserID, business *models.Business) error {
	existing, err := s.GetBusiness(ctx, owner, business.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	business.UserID = existing.UserID
	business.CreatedAt = existing.CreatedAt
	business.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Business](ctx, s.db, business.ID.RecordID(), business); err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	return nil
}

// DeleteBusiness removes the business and all records referencing it, each
// table in its own statement within one query so the whole cascade runs in
// one round trip.
func (s *SurrealStore) DeleteBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) error {
	existing, err := s.GetBusiness(ctx, owner, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}

	cascade := `
		DELETE contacts WHERE company_id = $business;
		DELETE notes WHERE business_id = $business;
		DELETE documents WHERE business_id = $business;
		DELETE tasks WHERE business_id = $business;
		DELETE articles WHERE business_id = $business;
		DELETE $record;`
	if _, err := surrealdb.Query[any](ctx, s.db, cascade, map[string]any{
		"business": id.RecordID(),
		"record":   id.RecordID(),
	}); err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}
	return nil
}

// clearOtherPrimaries drops the primary flag from the business's other
// contacts. No cross-request atomicity; last write wins.
func (s *SurrealStore) clearOtherPrimaries(ctx context.Context, business models.BusinessID, except models.ContactID) error {
	query := "UPDATE contacts SET is_primary = false WHERE company_id = $business AND id != $except AND is_primary = true"
	_, err := surrealdb.Query[any](ctx, s.db, query, map[string]any{
		"business": business.RecordID(),
		"except":   except.RecordID(),
	})
	return err
}

func (s *SurrealStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	if contact.ID.IsZero() {
		contact.ID = models.NewContactID()
	}
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if _, err := surrealdb.Create[models.Contact](ctx, s.db, "contacts", contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	if contact.IsPrimary {
		if err := s.clearOtherPrimaries(ctx, contact.CompanyID, contact.ID); err != nil {
			return fmt.Errorf("failed to clear other primary contacts: %w", err)
		}
	}
	return nil
}

func (s *SurrealStore) GetContact(ctx context.Context, owner models.UserID, id models.ContactID) (*models.Contact, error) {
	contact, err := surrealdb.Select[models.Contact](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil || contact.UserID != owner {
		return nil, nil
	}
	return contact, nil
}

func (s *SurrealStore) ListContacts(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Contact, error) {
	query := "SELECT * FROM contacts WHERE user_id = $owner ORDER BY created_at"
	params := map[string]any{"owner": owner.RecordID()}
	if business != nil {
		query = "SELECT * FROM contacts WHERE user_id = $owner AND company_id = $business ORDER BY created_at"
		params["business"] = business.RecordID()
	}
	rows, err := queryAll[models.Contact](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) UpdateContact(ctx context.Context, owner models.UserID, contact *models.Contact) error {
	existing, err := s.GetContact(ctx, owner, contact.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	contact.UserID = existing.UserID
	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Contact](ctx, s.db, contact.ID.RecordID(), contact); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if contact.IsPrimary {
		if err := s.clearOtherPrimaries(ctx, contact.CompanyID, contact.ID); err != nil {
			return fmt.Errorf("failed to clear other primary contacts: %w", err)
		}
	}
	return nil
}

func (s *SurrealStore) DeleteContact(ctx context.Context, owner models.UserID, id models.ContactID) error {
	existing, err := s.GetContact(ctx, owner, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[models.Contact](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

func (s *SurrealStore) SearchContacts(ctx context.Context, owner models.UserID, query string) ([]*models.Contact, error) {
	q := `SELECT * FROM contacts WHERE user_id = $owner AND (
		string::contains(string::lowercase(first_name), $q) OR
		string::contains(string::lowercase(last_name), $q) OR
		string::contains(string::lowercase(email), $q) OR
		string::contains(string::lowercase(position), $q)
	) ORDER BY created_at`
	rows, err := queryAll[models.Contact](ctx, s.db, q, map[string]any{
		"owner": owner.RecordID(),
		"q":     strings.ToLower(query),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) CreateNote(ctx context.Context, note *models.Note) error {
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	if _, err := surrealdb.Create[models.Note](ctx, s.db, "notes", note); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetNote(ctx context.Context, owner models.UserID, id models.NoteID) (*models.Note, error) {
	note, err := surrealdb.Select[models.Note](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if note == nil || note.UserID != owner {
		return nil, nil
	}
	return note, nil
}

func (s *SurrealStore) ListNotes(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Note, error) {
	query := "SELECT * FROM notes WHERE user_id = $owner ORDER BY created_at"
	params := map[string]any{"owner": owner.RecordID()}
	if business != nil {
		query = "SELECT * FROM notes WHERE user_id = $owner AND business_id = $business ORDER BY created_at"
		params["business"] = business.RecordID()
	}
	rows, err := queryAll[models.Note](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) UpdateNote(ctx context.Context, owner models.UserID, note *models.Note) error {
	existing, err := s.GetNote(ctx, owner, note.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	note.UserID = existing.UserID
	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Note](ctx, s.db, note.ID.RecordID(), note); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteNote(ctx context.Context, owner models.UserID, id models.NoteID) error {
	existing, err := s.GetNote(ctx, owner, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[models.Note](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (s *SurrealStore) SearchNotes(ctx context.Context, owner models.UserID, query string) ([]*models.Note, error) {
	q := `SELECT * FROM notes WHERE user_id = $owner AND (
		string::contains(string::lowercase(title), $q) OR
		$q IN tags.map(|$t| string::lowercase($t))
	) ORDER BY created_at`
	rows, err := queryAll[models.Note](ctx, s.db, q, map[string]any{
		"owner": owner.RecordID(),
		"q":     strings.ToLower(query),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID.IsZero() {
		doc.ID = models.NewDocumentID()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := surrealdb.Create[models.Document](ctx, s.db, "documents", doc); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetDocument(ctx context.Context, owner models.UserID, id models.DocumentID) (*models.Document, error) {
	doc, err := surrealdb.Select[models.Document](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil || doc.UserID != owner {
		return nil, nil
	}
	return doc, nil
}

func (s *SurrealStore) ListDocuments(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Document, error) {
	query := "SELECT * FROM documents WHERE user_id = $owner ORDER BY created_at"
	params := map[string]any{"owner": owner.RecordID()}
	if business != nil {
		query = "SELECT * FROM documents WHERE user_id = $owner AND business_id = $business ORDER BY created_at"
		params["business"] = business.RecordID()
	}
	rows, err := queryAll[models.Document](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) UpdateDocument(ctx context.Context, owner models.UserID, doc *models.Document) error {
	existing, err := s.GetDocument(ctx, owner, doc.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	doc.UserID = existing.UserID
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Document](ctx, s.db, doc.ID.RecordID(), doc); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteDocument(ctx context.Context, owner models.UserID, id models.DocumentID) error {
	existing, err := s.GetDocument(ctx, owner, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[models.Document](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *SurrealStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = models.NewTaskID()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if _, err := surrealdb.Create[models.Task](ctx, s.db, "tasks", task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetTask(ctx context.Context, owner models.UserID, id models.TaskID) (*models.Task, error) {
	task, err := surrealdb.Select[models.Task](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil || task.UserID != owner {
		return nil, nil
	}
	return task, nil
}

func (s *SurrealStore) ListTasks(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Task, error) {
	query := "SELECT * FROM tasks WHERE user_id = $owner ORDER BY created_at"
	params := map[string]any{"owner": owner.RecordID()}
	if business != nil {
		query = "SELECT * FROM tasks WHERE user_id = $owner AND business_id = $business ORDER BY created_at"
		params["business"] = business.RecordID()
	}
	rows, err := queryAll[models.Task](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) UpdateTask(ctx context.Context, owner models.UserID, task *models.Task) error {
	existing, err := s.GetTask(ctx, owner, task.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	task.UserID = existing.UserID
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Task](ctx, s.db, task.ID.RecordID(), task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteTask(ctx context.Context, owner models.UserID, id models.TaskID) error {
	existing, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[models.Task](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *SurrealStore) CreateArticle(ctx context.Context, article *models.NewsArticle) error {
	if article.ID.IsZero() {
		article.ID = models.NewArticleID()
	}
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.SavedAt.IsZero() {
		article.SavedAt = now
	}
	if _, err := surrealdb.Create[models.NewsArticle](ctx, s.db, "articles", article); err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetArticle(ctx context.Context, owner models.UserID, id models.ArticleID) (*models.NewsArticle, error) {
	article, err := surrealdb.Select[models.NewsArticle](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil || article.UserID != owner {
		return nil, nil
	}
	return article, nil
}

func (s *SurrealStore) ListArticles(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.NewsArticle, error) {
	query := "SELECT * FROM articles WHERE user_id = $owner ORDER BY created_at"
	params := map[string]any{"owner": owner.RecordID()}
	if business != nil {
		query = "SELECT * FROM articles WHERE user_id = $owner AND business_id = $business ORDER BY created_at"
		params["business"] = business.RecordID()
	}
	rows, err := queryAll[models.NewsArticle](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return toPointers(rows), nil
}

func (s *SurrealStore) UpdateArticle(ctx context.Context, owner models.UserID, article *models.NewsArticle) error {
	existing, err := s.GetArticle(ctx, owner, article.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	article.UserID = existing.UserID
	article.CreatedAt = existing.CreatedAt
	article.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.NewsArticle](ctx, s.db, article.ID.RecordID(), article); err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteArticle(ctx context.Context, owner models.UserID, id models.ArticleID) error {
	existing, err := s.GetArticle(ctx, owner, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[models.NewsArticle](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

// toPointers converts a value slice from a query into the pointer slice the
// Store interface returns. Always non-nil.
func toPointers[T any](rows []T) []*T {
	out := make([]*T, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out
}
