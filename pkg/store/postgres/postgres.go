// Package postgres implements [store.Store] on PostgreSQL through GORM. It
// is the relational alternative to the SurrealDB backend for deployments
// that already run Postgres; both expose identical semantics through the
// Store interface.
//
// Owner scoping is enforced in SQL: every read and write on owner-scoped
// kinds carries a user_id predicate, so a cross-owner id lookup affects zero
// rows and surfaces as not-found.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

var _ store.Store = (*PostgresStore)(nil)

// NewPostgresStore opens a connection for the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates or extends the schema with GORM's AutoMigrate. Safe to run
// repeatedly; it only adds missing tables, columns and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.Contact{},
		&models.Note{},
		&models.Document{},
		&models.Task{},
		&models.NewsArticle{},
	)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return store.NewValidationError("email", "already registered")
	}
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	existing, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *PostgresStore) CreateBusiness(ctx context.Context, business *models.Business) error {
	return s.db.WithContext(ctx).Create(business).Error
}

func (s *PostgresStore) GetBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) (*models.Business, error) {
	var business models.Business
	err := s.db.WithContext(ctx).First(&business, "id = ? AND user_id = ?", id, owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &business, nil
}

func (s *PostgresStore) ListBusinesses(ctx context.Context, owner models.UserID) ([]*models.Business, error) {
	businesses := []*models.Business{}
	err := s.db.WithContext(ctx).Where("user_id = ?", owner).Order("created_at").Find(&businesses).Error
	return businesses, err
}

func (s *PostgresStore) UpdateBusiness(ctx context.Context, owner models.UserID, business *models.Business) error {
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
	return s.db.WithContext(ctx).Save(business).Error
}

// DeleteBusiness removes the business and its dependent records in one
// transaction.
func (s *PostgresStore) DeleteBusiness(ctx context.Context, owner models.UserID, id models.BusinessID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Business{}, "id = ? AND user_id = ?", id, owner)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		if err := tx.Delete(&models.Contact{}, "company_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Note{}, "business_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Document{}, "business_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, "business_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.NewsArticle{}, "business_id = ?", id).Error
	})
}

func (s *PostgresStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contact).Error; err != nil {
			return err
		}
		if contact.IsPrimary {
			return clearOtherPrimaries(tx, contact.CompanyID, contact.ID)
		}
		return nil
	})
}

// clearOtherPrimaries drops the primary flag from the business's other
// contacts within the caller's transaction.
func clearOtherPrimaries(tx *gorm.DB, business models.BusinessID, except models.ContactID) error {
	return tx.Model(&models.Contact{}).
		Where("company_id = ? AND id <> ? AND is_primary", business, except).
		Update("is_primary", false).Error
}

func (s *PostgresStore) GetContact(ctx context.Context, owner models.UserID, id models.ContactID) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.WithContext(ctx).First(&contact, "id = ? AND user_id = ?", id, owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Contact, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", owner)
	if business != nil {
		q = q.Where("company_id = ?", *business)
	}
	contacts := []*models.Contact{}
	err := q.Order("created_at").Find(&contacts).Error
	return contacts, err
}

func (s *PostgresStore) UpdateContact(ctx context.Context, owner models.UserID, contact *models.Contact) error {
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
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(contact).Error; err != nil {
			return err
		}
		if contact.IsPrimary {
			return clearOtherPrimaries(tx, contact.CompanyID, contact.ID)
		}
		return nil
	})
}

func (s *PostgresStore) DeleteContact(ctx context.Context, owner models.UserID, id models.ContactID) error {
	res := s.db.WithContext(ctx).Delete(&models.Contact{}, "id = ? AND user_id = ?", id, owner)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SearchContacts(ctx context.Context, owner models.UserID, query string) ([]*models.Contact, error) {
	pattern := "%" + query + "%"
	contacts := []*models.Contact{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR position ILIKE ?",
			pattern, pattern, pattern, pattern).
		Order("created_at").
		Find(&contacts).Error
	return contacts, err
}

func (s *PostgresStore) CreateNote(ctx context.Context, note *models.Note) error {
	return s.db.WithContext(ctx).Create(note).Error
}

func (s *PostgresStore) GetNote(ctx context.Context, owner models.UserID, id models.NoteID) (*models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).First(&note, "id = ? AND user_id = ?", id, owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Note, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", owner)
	if business != nil {
		q = q.Where("business_id = ?", *business)
	}
	notes := []*models.Note{}
	err := q.Order("created_at").Find(&notes).Error
	return notes, err
}

func (s *PostgresStore) UpdateNote(ctx context.Context, owner models.UserID, note *models.Note) error {
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
	return s.db.WithContext(ctx).Save(note).Error
}

func (s *PostgresStore) DeleteNote(ctx context.Context, owner models.UserID, id models.NoteID) error {
	res := s.db.WithContext(ctx).Delete(&models.Note{}, "id = ? AND user_id = ?", id, owner)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SearchNotes(ctx context.Context, owner models.UserID, query string) ([]*models.Note, error) {
	pattern := "%" + query + "%"
	notes := []*models.Note{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Where("title ILIKE ? OR tags::text ILIKE ?", pattern, pattern).
		Order("created_at").
		Find(&notes).Error
	return notes, err
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *PostgresStore) GetDocument(ctx context.Context, owner models.UserID, id models.DocumentID) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ? AND user_id = ?", id, owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Document, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", owner)
	if business != nil {
		q = q.Where("business_id = ?", *business)
	}
	docs := []*models.Document{}
	err := q.Order("created_at").Find(&docs).Error
	return docs, err
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, owner models.UserID, doc *models.Document) error {
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
	return s.db.WithContext(ctx).Save(doc).Error
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, owner models.UserID, id models.DocumentID) error {
	res := s.db.WithContext(ctx).Delete(&models.Document{}, "id = ? AND user_id = ?", id, owner)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	return s.db.WithContext(ctx).Create(task).Error
}

func (s *PostgresStore) GetTask(ctx context.Context, owner models.UserID, id models.TaskID) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ? AND user_id = ?", id, owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.Task, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", owner)
	if business != nil {
		q = q.Where("business_id = ?", *business)
	}
	tasks := []*models.Task{}
	err := q.Order("created_at").Find(&tasks).Error
	return tasks, err
}

func (s *PostgresStore) UpdateTask(ctx context.Context, owner models.UserID, task *models.Task) error {
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
	return s.db.WithContext(ctx).Save(task).Error
}

func (s *PostgresStore) DeleteTask(ctx context.Context, owner models.UserID, id models.TaskID) error {
	res := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ? AND user_id = ?", id, owner)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateArticle(ctx context.Context, article *models.NewsArticle) error {
	if article.SavedAt.IsZero() {
		article.SavedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(article).Error
}

func (s *PostgresStore) GetArticle(ctx context.Context, owner models.UserID, id models.ArticleID) (*models.NewsArticle, error) {
	var article models.NewsArticle
	err := s.db.WithContext(ctx).First(&article, "id = ? AND user_id = ?", id, owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, owner models.UserID, business *models.BusinessID) ([]*models.NewsArticle, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", owner)
	if business != nil {
		q = q.Where("business_id = ?", *business)
	}
	articles := []*models.NewsArticle{}
	err := q.Order("created_at").Find(&articles).Error
	return articles, err
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, owner models.UserID, article *models.NewsArticle) error {
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
	return s.db.WithContext(ctx).Save(article).Error
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, owner models.UserID, id models.ArticleID) error {
	res := s.db.WithContext(ctx).Delete(&models.NewsArticle{}, "id = ? AND user_id = ?", id, owner)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
