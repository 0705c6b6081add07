// Package memory implements [store.Store] with in-process maps. It backs
// tests and local development where neither SurrealDB nor PostgreSQL is
// running; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
)

// Store keeps all records in maps guarded by one RWMutex. Records are copied
// on the way in and out so callers never alias the stored values.
type Store struct {
	mu         sync.RWMutex
	users      map[models.UserID]*models.User
	businesses map[models.BusinessID]*models.Business
	contacts   map[models.ContactID]*models.Contact
	notes      map[models.NoteID]*models.Note
	documents  map[models.DocumentID]*models.Document
	tasks      map[models.TaskID]*models.Task
	articles   map[models.ArticleID]*models.NewsArticle
}

var _ store.Store = (*Store)(nil)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:      make(map[models.UserID]*models.User),
		businesses: make(map[models.BusinessID]*models.Business),
		contacts:   make(map[models.ContactID]*models.Contact),
		notes:      make(map[models.NoteID]*models.Note),
		documents:  make(map[models.DocumentID]*models.Document),
		tasks:      make(map[models.TaskID]*models.Task),
		articles:   make(map[models.ArticleID]*models.NewsArticle),
	}
}

func (s *Store) Close() error { return nil }

// Clone helpers produce the copies handed across the store boundary. A
// shallow struct copy is not enough: slice fields and pointer fields would
// still share backing storage with the stored record, and a caller mutating
// them would rewrite store state without holding the lock.

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

func cloneBusiness(b *models.Business) *models.Business {
	cp := *b
	cp.Founded = cloneTime(b.Founded)
	cp.Tags = append(models.Tags(nil), b.Tags...)
	return &cp
}

func cloneContact(c *models.Contact) *models.Contact {
	cp := *c
	cp.Tags = append(models.Tags(nil), c.Tags...)
	cp.LastContacted = cloneTime(c.LastContacted)
	cp.Interactions = append(models.Interactions(nil), c.Interactions...)
	return &cp
}

func cloneNote(n *models.Note) *models.Note {
	cp := *n
	cp.Tags = append(models.Tags(nil), n.Tags...)
	return &cp
}

func cloneDocument(d *models.Document) *models.Document {
	cp := *d
	cp.Tags = append(models.Tags(nil), d.Tags...)
	return &cp
}

func cloneTask(t *models.Task) *models.Task {
	cp := *t
	cp.DueDate = cloneTime(t.DueDate)
	if t.BusinessID != nil {
		id := *t.BusinessID
		cp.BusinessID = &id
	}
	return &cp
}

func cloneArticle(a *models.NewsArticle) *models.NewsArticle {
	cp := *a
	cp.PublishedAt = cloneTime(a.PublishedAt)
	cp.Tags = append(models.Tags(nil), a.Tags...)
	return &cp
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.NewValidationError("email", "already registered")
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) CreateBusiness(ctx context.Context, business *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if business.ID.IsZero() {
		business.ID = models.NewBusinessID()
	}
	now := time.Now()
	business.CreatedAt = now
	business.UpdatedAt = now
	s.businesses[business.ID] = cloneBusiness(business)
	return nil
}

func (s *Store) GetBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok || b.UserID != owner {
		return nil, nil
	}
	return cloneBusiness(b), nil
}

func (s *Store) ListBusinesses(ctx context.Context, owner models.UserID) ([]*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Business{}
	for _, b := range s.businesses {
		if b.UserID == owner {
			out = append(out, cloneBusiness(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateBusiness(ctx context.Context, owner models.UserID, business *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.businesses[business.ID]
	if !ok || existing.UserID != owner {
		return store.ErrNotFound
	}
	business.UserID = existing.UserID
	business.CreatedAt = existing.CreatedAt
	business.UpdatedAt = time.Now()
	s.businesses[business.ID] = cloneBusiness(business)
	return nil
}

// DeleteBusiness removes the business and every record that referenced it.
func (s *Store) DeleteBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok || b.UserID != owner {
		return store.ErrNotFound
	}
	delete(s.businesses, id)
	for cid, c := range s.contacts {
		if c.CompanyID == id {
			delete(s.contacts, cid)
		}
	}
	for nid, n := range s.notes {
		if n.BusinessID == id {
			delete(s.notes, nid)
		}
	}
	for did, d := range s.documents {
		if d.BusinessID == id {
			delete(s.documents, did)
		}
	}
	for tid, tk := range s.tasks {
		if tk.BusinessID != nil && *tk.BusinessID == id {
			delete(s.tasks, tid)
		}
	}
	for aid, a := range s.articles {
		if a.BusinessID == id {
			delete(s.articles, aid)
		}
	}
	return nil
}

// clearOtherPrimaries drops the primary flag from the business's other
// contacts. Caller holds the write lock.
func (s *Store) clearOtherPrimaries(business models.BusinessID, except models.ContactID) {
	for _, c := range s.contacts {
		if c.CompanyID == business && c.ID != except && c.IsPrimary {
			c.IsPrimary = false
			c.UpdatedAt = time.Now()
		}
	}
}

func (s *Store) CreateContact(ctx context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contact.ID.IsZero() {
		contact.ID = models.NewContactID()
	}
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if contact.IsPrimary {
		s.clearOtherPrimaries(contact.CompanyID, contact.ID)
	}
	s.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (s *Store) GetContact(ctx context.Context, owner models.UserID, id models.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok || c.UserID != owner {
		return nil, nil
	}
	return cloneContact(c), nil
}

func (s *Store) ListContacts(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Contact{}
	for _, c := range s.contacts {
		if c.UserID != owner {
			continue
		}
		if business != nil && c.CompanyID != *business {
			continue
		}
		out = append(out, cloneContact(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateContact(ctx context.Context, owner models.UserID, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.contacts[contact.ID]
	if !ok || existing.UserID != owner {
		return store.ErrNotFound
	}
	contact.UserID = existing.UserID
	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = time.Now()
	if contact.IsPrimary {
		s.clearOtherPrimaries(contact.CompanyID, contact.ID)
	}
	s.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (s *Store) DeleteContact(ctx context.Context, owner models.UserID, id models.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.UserID != owner {
		return store.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *Store) SearchContacts(ctx context.Context, owner models.UserID, query string) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	out := []*models.Contact{}
	for _, c := range s.contacts {
		if c.UserID != owner {
			continue
		}
		hay := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email + " " + c.Position)
		if strings.Contains(hay, q) {
			out = append(out, cloneContact(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *Store) GetNote(ctx context.Context, owner models.UserID, id models.NoteID) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != owner {
		return nil, nil
	}
	return cloneNote(n), nil
}

func (s *Store) ListNotes(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Note{}
	for _, n := range s.notes {
		if n.UserID != owner {
			continue
		}
		if business != nil && n.BusinessID != *business {
			continue
		}
		out = append(out, cloneNote(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateNote(ctx context.Context, owner models.UserID, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.notes[note.ID]
	if !ok || existing.UserID != owner {
		return store.ErrNotFound
	}
	note.UserID = existing.UserID
	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = time.Now()
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, owner models.UserID, id models.NoteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != owner {
		return store.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *Store) SearchNotes(ctx context.Context, owner models.UserID, query string) ([]*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	out := []*models.Note{}
	for _, n := range s.notes {
		if n.UserID != owner {
			continue
		}
		hay := strings.ToLower(n.Title + " " + strings.Join(n.Tags, " "))
		if strings.Contains(hay, q) {
			out = append(out, cloneNote(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID.IsZero() {
		doc.ID = models.NewDocumentID()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *Store) GetDocument(ctx context.Context, owner models.UserID, id models.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok || d.UserID != owner {
		return nil, nil
	}
	return cloneDocument(d), nil
}

func (s *Store) ListDocuments(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Document{}
	for _, d := range s.documents {
		if d.UserID != owner {
			continue
		}
		if business != nil && d.BusinessID != *business {
			continue
		}
		out = append(out, cloneDocument(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateDocument(ctx context.Context, owner models.UserID, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.documents[doc.ID]
	if !ok || existing.UserID != owner {
		return store.ErrNotFound
	}
	doc.UserID = existing.UserID
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now()
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, owner models.UserID, id models.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok || d.UserID != owner {
		return store.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = models.NewTaskID()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *Store) GetTask(ctx context.Context, owner models.UserID, id models.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != owner {
		return nil, nil
	}
	return cloneTask(t), nil
}

func (s *Store) ListTasks(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Task{}
	for _, t := range s.tasks {
		if t.UserID != owner {
			continue
		}
		if business != nil && (t.BusinessID == nil || *t.BusinessID != *business) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateTask(ctx context.Context, owner models.UserID, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != owner {
		return store.ErrNotFound
	}
	task.UserID = existing.UserID
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, owner models.UserID, id models.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != owner {
		return store.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) CreateArticle(ctx context.Context, article *models.NewsArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if article.ID.IsZero() {
		article.ID = models.NewArticleID()
	}
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.SavedAt.IsZero() {
		article.SavedAt = now
	}
	s.articles[article.ID] = cloneArticle(article)
	return nil
}

func (s *Store) GetArticle(ctx context.Context, owner models.UserID, id models.ArticleID) (*models.NewsArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok || a.UserID != owner {
		return nil, nil
	}
	return cloneArticle(a), nil
}

func (s *Store) ListArticles(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.NewsArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.NewsArticle{}
	for _, a := range s.articles {
		if a.UserID != owner {
			continue
		}
		if business != nil && a.BusinessID != *business {
			continue
		}
		out = append(out, cloneArticle(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateArticle(ctx context.Context, owner models.UserID, article *models.NewsArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.articles[article.ID]
	if !ok || existing.UserID != owner {
		return store.ErrNotFound
	}
	article.UserID = existing.UserID
	article.CreatedAt = existing.CreatedAt
	article.UpdatedAt = time.Now()
	s.articles[article.ID] = cloneArticle(article)
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, owner models.UserID, id models.ArticleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok || a.UserID != owner {
		return store.ErrNotFound
	}
	delete(s.articles, id)
	return nil
}
