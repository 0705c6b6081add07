package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Stage represents where a business sits in the research pipeline
type Stage string

const (
	StageResearching   Stage = "Researching"
	StageContacting    Stage = "Contacting"
	StageMeeting       Stage = "Meeting"
	StageNegotiating   Stage = "Negotiating"
	StageClosed        Stage = "Closed"
	StageNotInterested Stage = "Not Interested"
)

// TaskStatus represents the completion state of a task
type TaskStatus string

const (
	TaskTodo       TaskStatus = "Todo"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

// TaskPriority represents the urgency of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// RelationshipStrength grades how established a contact relationship is
type RelationshipStrength string

const (
	RelationshipNew       RelationshipStrength = "New"
	RelationshipConnected RelationshipStrength = "Connected"
	RelationshipEngaged   RelationshipStrength = "Engaged"
	RelationshipStrong    RelationshipStrength = "Strong"
	RelationshipAdvocate  RelationshipStrength = "Advocate"
)

// InteractionType classifies a logged touchpoint with a contact
type InteractionType string

const (
	InteractionEmail   InteractionType = "Email"
	InteractionCall    InteractionType = "Call"
	InteractionMeeting InteractionType = "Meeting"
	InteractionSocial  InteractionType = "Social"
	InteractionOther   InteractionType = "Other"
)

// Tags is a string set persisted as a JSON array. PostgreSQL stores it as
// JSONB via the Valuer/Scanner pair; SurrealDB stores it as a native array.
type Tags []string

// Value implements the driver.Valuer interface for database storage
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for database retrieval
func (t *Tags) Scan(value any) error {
	if value == nil {
		*t = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, t)
}

func (Tags) GormDataType() string { return "jsonb" }

// Interaction is one logged touchpoint with a contact. Interactions live
// embedded on the Contact record, matching how the records are always read
// and written together.
type Interaction struct {
	Type    InteractionType `json:"type"`
	Date    time.Time       `json:"date"`
	Notes   string          `json:"notes,omitempty"`
	Outcome string          `json:"outcome,omitempty"`
}

// Interactions is the embedded interaction log, persisted as a JSON array.
type Interactions []Interaction

func (i Interactions) Value() (driver.Value, error) {
	if i == nil {
		return nil, nil
	}
	return json.Marshal(i)
}

func (i *Interactions) Scan(value any) error {
	if value == nil {
		*i = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, i)
}

func (Interactions) GormDataType() string { return "jsonb" }

// User represents an account. Password-based and Microsoft OAuth federated
// sign-in both resolve to one of these; either PasswordHash or the Microsoft
// token pair is set. Tokens and hashes never leave the server (json:"-").
type User struct {
	ID                    UserID    `gorm:"type:uuid;primary_key" json:"id"`
	Name                  string    `gorm:"not null" json:"name"`
	Email                 string    `gorm:"unique;not null" json:"email"`
	PasswordHash          string    `json:"-"`
	MicrosoftAccessToken  string    `json:"-"`
	MicrosoftRefreshToken string    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// HasMicrosoftIntegration reports whether remote file storage is available
// for this user.
func (u *User) HasMicrosoftIntegration() bool {
	return u.MicrosoftAccessToken != ""
}

// Business is the root record of the research CRM. Every other record kind
// except User hangs off a business and the owning user.
type Business struct {
	ID           BusinessID `gorm:"type:uuid;primary_key" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Industry     string     `json:"industry,omitempty"`
	Website      string     `json:"website,omitempty"`
	Description  string     `json:"description,omitempty"`
	Size         string     `json:"size,omitempty"`
	Founded      *time.Time `json:"founded,omitempty"`
	Headquarters string     `json:"headquarters,omitempty"`
	Revenue      string     `json:"revenue,omitempty"`
	Tags         Tags       `gorm:"type:jsonb" json:"tags,omitempty"`
	Stage        Stage      `gorm:"not null" json:"stage"`
	UserID       UserID     `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewBusinessID()
	}
	return nil
}

// Contact is a person at a business. At most one contact per business carries
// IsPrimary; stores clear the previous primary when a new one is written.
type Contact struct {
	ID                   ContactID            `gorm:"type:uuid;primary_key" json:"id"`
	FirstName            string               `gorm:"not null" json:"first_name"`
	LastName             string               `gorm:"not null" json:"last_name"`
	Position             string               `json:"position,omitempty"`
	Department           string               `json:"department,omitempty"`
	CompanyID            BusinessID           `gorm:"type:uuid;not null" json:"company_id"`
	IsPrimary            bool                 `json:"is_primary"`
	Email                string               `json:"email,omitempty"`
	Phone                string               `json:"phone,omitempty"`
	Mobile               string               `json:"mobile,omitempty"`
	LinkedIn             string               `json:"linkedin,omitempty"`
	Twitter              string               `json:"twitter,omitempty"`
	Notes                string               `json:"notes,omitempty"`
	Tags                 Tags                 `gorm:"type:jsonb" json:"tags,omitempty"`
	LastContacted        *time.Time           `json:"last_contacted,omitempty"`
	RelationshipStrength RelationshipStrength `json:"relationship_strength"`
	Interactions         Interactions         `gorm:"type:jsonb" json:"interactions,omitempty"`
	UserID               UserID               `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewContactID()
	}
	return nil
}

// Note is a rich-text research note. Content holds the serialized block
// document produced by the content codec; the store treats it as opaque.
// DriveFileID/DriveFileURL point at the optional plain-text mirror in
// remote file storage.
type Note struct {
	ID           NoteID     `gorm:"type:uuid;primary_key" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Tags         Tags       `gorm:"type:jsonb" json:"tags,omitempty"`
	BusinessID   BusinessID `gorm:"type:uuid;not null" json:"business_id"`
	UserID       UserID     `gorm:"type:uuid;not null" json:"user_id"`
	DriveFileID  string     `json:"drive_file_id,omitempty"`
	DriveFileURL string     `json:"drive_file_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID.IsZero() {
		n.ID = NewNoteID()
	}
	return nil
}

// Document is the metadata record for a file held in remote storage. The
// bytes themselves live only in the drive; DriveFileID is the handle.
type Document struct {
	ID           DocumentID `gorm:"type:uuid;primary_key" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	FileType     string     `json:"file_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	DriveFileID  string     `gorm:"not null" json:"drive_file_id"`
	DriveFileURL string     `json:"drive_file_url,omitempty"`
	BusinessID   BusinessID `gorm:"type:uuid;not null" json:"business_id"`
	UserID       UserID     `gorm:"type:uuid;not null" json:"user_id"`
	Tags         Tags       `gorm:"type:jsonb" json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID.IsZero() {
		d.ID = NewDocumentID()
	}
	return nil
}

// Task is a follow-up item. BusinessID is optional; when present it must
// reference a business owned by the same user.
type Task struct {
	ID          TaskID       `gorm:"type:uuid;primary_key" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `gorm:"not null" json:"status"`
	Priority    TaskPriority `gorm:"not null" json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	BusinessID  *BusinessID  `gorm:"type:uuid" json:"business_id,omitempty"`
	UserID      UserID       `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID.IsZero() {
		t.ID = NewTaskID()
	}
	return nil
}

// NewsArticle is a saved press mention or news item about a business.
type NewsArticle struct {
	ID          ArticleID  `gorm:"type:uuid;primary_key" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Source      string     `json:"source,omitempty"`
	URL         string     `json:"url,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SavedAt     time.Time  `json:"saved_at"`
	BusinessID  BusinessID `gorm:"type:uuid;not null" json:"business_id"`
	UserID      UserID     `gorm:"type:uuid;not null" json:"user_id"`
	Tags        Tags       `gorm:"type:jsonb" json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (a *NewsArticle) BeforeCreate(tx *gorm.DB) error {
	if a.ID.IsZero() {
		a.ID = NewArticleID()
	}
	return nil
}
