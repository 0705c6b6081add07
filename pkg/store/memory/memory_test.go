package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
)

func seedBusiness(t *testing.T, s *Store, owner models.UserID, name string) *models.Business {
	t.Helper()
	b := &models.Business{Name: name, Stage: models.StageResearching, UserID: owner}
	require.NoError(t, s.CreateBusiness(context.Background(), b))
	return b
}

func TestOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	ownerA := models.NewUserID()
	ownerB := models.NewUserID()

	b := seedBusiness(t, s, ownerA, "Acme")

	got, err := s.GetBusiness(ctx, ownerB, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "another owner's record reads as absent")

	assert.ErrorIs(t, s.DeleteBusiness(ctx, ownerB, b.ID), store.ErrNotFound)

	got, err = s.GetBusiness(ctx, ownerA, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.Name)
}

func TestUpdateKeepsOwnerAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := models.NewUserID()
	b := seedBusiness(t, s, owner, "Acme")

	changed := *b
	changed.Name = "Acme Corp"
	changed.UserID = models.NewUserID() // must not take effect
	require.NoError(t, s.UpdateBusiness(ctx, owner, &changed))

	got, err := s.GetBusiness(ctx, owner, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, b.CreatedAt, got.CreatedAt)
	assert.False(t, got.UpdatedAt.Before(b.UpdatedAt))
}

func TestDeleteBusinessCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := models.NewUserID()
	b := seedBusiness(t, s, owner, "Acme")
	keep := seedBusiness(t, s, owner, "Globex")

	contact := &models.Contact{FirstName: "Ada", LastName: "L", CompanyID: b.ID, UserID: owner}
	require.NoError(t, s.CreateContact(ctx, contact))
	note := &models.Note{Title: "Kickoff", Content: "{}", BusinessID: b.ID, UserID: owner}
	require.NoError(t, s.CreateNote(ctx, note))
	task := &models.Task{Title: "Call", Status: models.TaskTodo, Priority: models.PriorityMedium, BusinessID: &b.ID, UserID: owner}
	require.NoError(t, s.CreateTask(ctx, task))
	keepNote := &models.Note{Title: "Other", Content: "{}", BusinessID: keep.ID, UserID: owner}
	require.NoError(t, s.CreateNote(ctx, keepNote))

	require.NoError(t, s.DeleteBusiness(ctx, owner, b.ID))

	got, err := s.GetContact(ctx, owner, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	gotNote, err := s.GetNote(ctx, owner, note.ID)
	require.NoError(t, err)
	assert.Nil(t, gotNote)
	gotTask, err := s.GetTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Nil(t, gotTask)

	stillThere, err := s.GetNote(ctx, owner, keepNote.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere, "records of other businesses survive")
}

func TestPrimaryContactUniquePerBusiness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := models.NewUserID()
	b := seedBusiness(t, s, owner, "Acme")

	first := &models.Contact{FirstName: "Ada", LastName: "L", CompanyID: b.ID, UserID: owner, IsPrimary: true}
	require.NoError(t, s.CreateContact(ctx, first))
	second := &models.Contact{FirstName: "Grace", LastName: "H", CompanyID: b.ID, UserID: owner, IsPrimary: true}
	require.NoError(t, s.CreateContact(ctx, second))

	got, err := s.GetContact(ctx, owner, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsPrimary, "earlier primary cleared")

	got, err = s.GetContact(ctx, owner, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsPrimary)
}

func TestSearchContactsSubstring(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := models.NewUserID()
	b := seedBusiness(t, s, owner, "Acme")

	require.NoError(t, s.CreateContact(ctx, &models.Contact{FirstName: "Ada", LastName: "Lovelace", CompanyID: b.ID, UserID: owner}))
	require.NoError(t, s.CreateContact(ctx, &models.Contact{FirstName: "Grace", LastName: "Hopper", CompanyID: b.ID, UserID: owner}))

	found, err := s.SearchContacts(ctx, owner, "love")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ada", found[0].FirstName)

	other, err := s.SearchContacts(ctx, models.NewUserID(), "love")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListScopedByBusiness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := models.NewUserID()
	acme := seedBusiness(t, s, owner, "Acme")
	globex := seedBusiness(t, s, owner, "Globex")

	require.NoError(t, s.CreateNote(ctx, &models.Note{Title: "A", Content: "{}", BusinessID: acme.ID, UserID: owner}))
	require.NoError(t, s.CreateNote(ctx, &models.Note{Title: "B", Content: "{}", BusinessID: globex.ID, UserID: owner}))

	all, err := s.ListNotes(ctx, owner, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := s.ListNotes(ctx, owner, &acme.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "A", scoped[0].Title)
}

func TestDuplicateEmailRejected(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateUser(ctx, &models.User{Name: "A", Email: "a@example.com"}))
	err := s.CreateUser(ctx, &models.User{Name: "B", Email: "a@example.com"})
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
}

// TestReturnedRecordsDoNotAliasStore mutates the slice and pointer fields of
// records handed back by the store and verifies a re-fetch still sees the
// original values. A shallow copy would share backing storage and let the
// caller rewrite store state without the lock.
func TestReturnedRecordsDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := models.NewUserID()
	b := seedBusiness(t, s, owner, "Acme")

	when := time.Now().Add(-time.Hour)
	contact := &models.Contact{
		FirstName:     "Jo",
		LastName:      "Nakamura",
		CompanyID:     b.ID,
		UserID:        owner,
		Tags:          models.Tags{"vip"},
		LastContacted: &when,
		Interactions:  models.Interactions{{Type: models.InteractionCall, Notes: "original"}},
	}
	require.NoError(t, s.CreateContact(ctx, contact))

	got, err := s.GetContact(ctx, owner, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	got.Interactions[0].Notes = "mutated by caller"
	got.Tags[0] = "mutated"
	*got.LastContacted = got.LastContacted.Add(48 * time.Hour)

	fresh, err := s.GetContact(ctx, owner, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "original", fresh.Interactions[0].Notes)
	assert.Equal(t, models.Tags{"vip"}, fresh.Tags)
	assert.True(t, fresh.LastContacted.Equal(when))

	// The record passed to Create must not alias either
	contact.Interactions[0].Notes = "mutated after create"
	fresh, err = s.GetContact(ctx, owner, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Interactions[0].Notes)

	// List results carry their own copies too
	listed, err := s.ListContacts(ctx, owner, &b.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Interactions[0].Notes = "mutated via list"
	fresh, err = s.GetContact(ctx, owner, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Interactions[0].Notes)
}
