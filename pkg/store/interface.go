// Package store defines the persistence interface for the prospect
// application.
//
// The [Store] interface abstracts owner-scoped CRUD over the record kinds so
// the application can run against different backends through one API:
//
//   - [github.com/prospectcrm/prospect/pkg/store/surrealdb.SurrealStore]:
//     native SurrealQL over the CBOR protocol, no ORM
//   - [github.com/prospectcrm/prospect/pkg/store/postgres.PostgresStore]:
//     GORM over PostgreSQL for deployments without SurrealDB
//   - [github.com/prospectcrm/prospect/pkg/store/memory.Store]: in-memory
//     maps for tests and local development
//
// # Owner scoping
//
// Every read and write on a record kind other than User takes the
// authenticated caller's user id and filters by it. A record owned by someone
// else is indistinguishable from a record that does not exist: Get returns
// nil, Update and Delete return [ErrNotFound]. Nothing in this package ever
// reports "exists but forbidden".
//
// # Conventions
//
// Create methods fill a zero ID with a new UUID and set both timestamps.
// Get methods return nil without error for missing records.
// Update methods replace the whole record and bump UpdatedAt.
// List methods return empty slices for no results, never nil.
// All methods accept a context and respect its cancellation.
package store

import (
	"context"

	"github.com/prospectcrm/prospect/pkg/models"
)

// Store is the complete persistence surface consumed by the application.
type Store interface {
	// User records back authentication and are keyed by email at login.
	// They are not owner-scoped; the auth layer is their only caller.

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	// Businesses are the root of the research hierarchy. Deleting one
	// removes its contacts, notes, documents, tasks and articles as well.

	CreateBusiness(ctx context.Context, business *models.Business) error
	GetBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) (*models.Business, error)
	ListBusinesses(ctx context.Context, owner models.UserID) ([]*models.Business, error)
	UpdateBusiness(ctx context.Context, owner models.UserID, business *models.Business) error
	DeleteBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) error

	// Contacts belong to a business. Writing a contact with IsPrimary set
	// clears the flag on the business's other contacts in the same call;
	// there is no cross-request atomicity guarantee around this.

	CreateContact(ctx context.Context, contact *models.Contact) error
	GetContact(ctx context.Context, owner models.UserID, id models.ContactID) (*models.Contact, error)
	ListContacts(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Contact, error)
	UpdateContact(ctx context.Context, owner models.UserID, contact *models.Contact) error
	DeleteContact(ctx context.Context, owner models.UserID, id models.ContactID) error
	SearchContacts(ctx context.Context, owner models.UserID, query string) ([]*models.Contact, error)

	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, owner models.UserID, id models.NoteID) (*models.Note, error)
	ListNotes(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Note, error)
	UpdateNote(ctx context.Context, owner models.UserID, note *models.Note) error
	DeleteNote(ctx context.Context, owner models.UserID, id models.NoteID) error
	SearchNotes(ctx context.Context, owner models.UserID, query string) ([]*models.Note, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, owner models.UserID, id models.DocumentID) (*models.Document, error)
	ListDocuments(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Document, error)
	UpdateDocument(ctx context.Context, owner models.UserID, doc *models.Document) error
	DeleteDocument(ctx context.Context, owner models.UserID, id models.DocumentID) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, owner models.UserID, id models.TaskID) (*models.Task, error)
	ListTasks(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Task, error)
	UpdateTask(ctx context.Context, owner models.UserID, task *models.Task) error
	DeleteTask(ctx context.Context, owner models.UserID, id models.TaskID) error

	CreateArticle(ctx context.Context, article *models.NewsArticle) error
	GetArticle(ctx context.Context, owner models.UserID, id models.ArticleID) (*models.NewsArticle, error)
	ListArticles(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.NewsArticle, error)
	UpdateArticle(ctx context.Context, owner models.UserID, article *models.NewsArticle) error
	DeleteArticle(ctx context.Context, owner models.UserID, id models.ArticleID) error

	// Close releases backend connections. Safe to call once at shutdown.
	Close() error
}
