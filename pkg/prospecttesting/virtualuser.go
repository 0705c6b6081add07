// Package prospecttesting provides testing utilities for the prospect
// application.
//
// [VirtualUser] is a stateful simulated account that exercises the REST API
// through [github.com/prospectcrm/prospect/pkg/client.Client] the way a real
// researcher would: registering, building a pipeline of businesses, filling
// them with contacts, notes and tasks, and occasionally updating or deleting
// what it made. Behavior is driven by a random generator seeded with the
// user's index, so a scenario replays identically for debugging while still
// covering varied code paths.
//
// Each virtual user tracks everything it created and deleted; VerifyAllData
// cross-checks that record against the server, catching lost writes, leaked
// deletes and owner-scoping failures. Multiple virtual users run
// concurrently against one server for load testing, each with its own
// client and session.
package prospecttesting

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prospectcrm/prospect/pkg/client"
	"github.com/prospectcrm/prospect/pkg/content"
	"github.com/prospectcrm/prospect/pkg/models"
)

// VirtualUser simulates one account working the research pipeline.
type VirtualUser struct {
	Index    int // virtual user index (0, 1, 2...), NOT the database user id
	Name     string
	Email    string
	Password string
	Client   *client.Client
	RNG      *rand.Rand // seeded with Index for reproducible scenarios

	// Session state
	User *models.User

	// Records created by this user
	Businesses []*models.Business
	Contacts   map[models.BusinessID][]*models.Contact
	Notes      map[models.BusinessID][]*models.Note
	Tasks      []*models.Task

	// Deleted ids, verified gone afterwards
	DeletedBusinesses []models.BusinessID
	DeletedContacts   []models.ContactID

	mu sync.RWMutex
}

// NewVirtualUser creates a virtual user with its own API client. The email
// embeds a timestamp so repeated runs against a persistent store do not
// collide.
func NewVirtualUser(index int, baseURL string) *VirtualUser {
	timestamp := time.Now().UnixNano()
	return &VirtualUser{
		Index:    index,
		Name:     fmt.Sprintf("Virtual User %d", index),
		Email:    fmt.Sprintf("user%d-%d@test.com", index, timestamp),
		Password: fmt.Sprintf("password-%d", index),
		Client:   client.NewClient(baseURL),
		RNG:      rand.New(rand.NewSource(int64(index))),
		Contacts: make(map[models.BusinessID][]*models.Contact),
		Notes:    make(map[models.BusinessID][]*models.Note),
	}
}

// Register creates the account and signs it in.
func (vu *VirtualUser) Register(ctx context.Context) error {
	resp, err := vu.Client.Register(ctx, vu.Name, vu.Email, vu.Password)
	if err != nil {
		return fmt.Errorf("virtual user %d register failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	vu.User = resp.User
	vu.mu.Unlock()
	return nil
}

// CreateBusiness adds a business and tracks it.
func (vu *VirtualUser) CreateBusiness(ctx context.Context, name string) (*models.Business, error) {
	business, err := vu.Client.CreateBusiness(ctx, &models.Business{
		Name:     name,
		Industry: "Testing",
		Stage:    models.StageResearching,
	})
	if err != nil {
		return nil, fmt.Errorf("virtual user %d create business failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	vu.Businesses = append(vu.Businesses, business)
	vu.mu.Unlock()
	return business, nil
}

// CreateContact adds a contact under the business and tracks it.
func (vu *VirtualUser) CreateContact(ctx context.Context, businessID models.BusinessID, first, last string) (*models.Contact, error) {
	contact, err := vu.Client.CreateContact(ctx, &models.Contact{
		FirstName: first,
		LastName:  last,
		CompanyID: businessID,
	})
	if err != nil {
		return nil, fmt.Errorf("virtual user %d create contact failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	vu.Contacts[businessID] = append(vu.Contacts[businessID], contact)
	vu.mu.Unlock()
	return contact, nil
}

// CreateNote adds a note with generated block content and tracks it.
func (vu *VirtualUser) CreateNote(ctx context.Context, businessID models.BusinessID, title, body string) (*models.Note, error) {
	ed := content.NewEditor()
	ed.InsertText(body)
	raw, err := content.Marshal(ed.Content())
	if err != nil {
		return nil, fmt.Errorf("virtual user %d building note content failed: %w", vu.Index, err)
	}

	note, err := vu.Client.CreateNote(ctx, &models.Note{
		Title:      title,
		Content:    raw,
		BusinessID: businessID,
	})
	if err != nil {
		return nil, fmt.Errorf("virtual user %d create note failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	vu.Notes[businessID] = append(vu.Notes[businessID], note)
	vu.mu.Unlock()
	return note, nil
}

// CreateTask adds a task referencing the business and tracks it.
func (vu *VirtualUser) CreateTask(ctx context.Context, businessID models.BusinessID, title string) (*models.Task, error) {
	task, err := vu.Client.CreateTask(ctx, &models.Task{
		Title:      title,
		BusinessID: &businessID,
	})
	if err != nil {
		return nil, fmt.Errorf("virtual user %d create task failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	vu.Tasks = append(vu.Tasks, task)
	vu.mu.Unlock()
	return task, nil
}

// DeleteContact removes a contact and moves it to the deleted list.
func (vu *VirtualUser) DeleteContact(ctx context.Context, businessID models.BusinessID, contactID models.ContactID) error {
	if err := vu.Client.DeleteContact(ctx, contactID); err != nil {
		return fmt.Errorf("virtual user %d delete contact failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	kept := vu.Contacts[businessID][:0]
	for _, c := range vu.Contacts[businessID] {
		if c.ID != contactID {
			kept = append(kept, c)
		}
	}
	vu.Contacts[businessID] = kept
	vu.DeletedContacts = append(vu.DeletedContacts, contactID)
	vu.mu.Unlock()
	return nil
}

// DeleteBusiness removes a business; its children are expected to cascade.
func (vu *VirtualUser) DeleteBusiness(ctx context.Context, businessID models.BusinessID) error {
	if err := vu.Client.DeleteBusiness(ctx, businessID); err != nil {
		return fmt.Errorf("virtual user %d delete business failed: %w", vu.Index, err)
	}
	vu.mu.Lock()
	kept := vu.Businesses[:0]
	for _, b := range vu.Businesses {
		if b.ID != businessID {
			kept = append(kept, b)
		}
	}
	vu.Businesses = kept
	delete(vu.Contacts, businessID)
	delete(vu.Notes, businessID)
	keptTasks := vu.Tasks[:0]
	for _, t := range vu.Tasks {
		if t.BusinessID == nil || *t.BusinessID != businessID {
			keptTasks = append(keptTasks, t)
		}
	}
	vu.Tasks = keptTasks
	vu.DeletedBusinesses = append(vu.DeletedBusinesses, businessID)
	vu.mu.Unlock()
	return nil
}

// VerifyAllData cross-checks the server against everything this user
// tracked: surviving records are present with the right counts, deleted
// records answer not-found.
func (vu *VirtualUser) VerifyAllData(ctx context.Context) error {
	current, err := vu.Client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("virtual user %d failed to get current user: %w", vu.Index, err)
	}
	if current.ID != vu.User.ID {
		return fmt.Errorf("virtual user %d ID mismatch: expected %s, got %s", vu.Index, vu.User.ID, current.ID)
	}

	businesses, err := vu.Client.ListBusinesses(ctx)
	if err != nil {
		return fmt.Errorf("virtual user %d failed to list businesses: %w", vu.Index, err)
	}
	if len(businesses) != len(vu.Businesses) {
		return fmt.Errorf("virtual user %d business count mismatch: expected %d, got %d", vu.Index, len(vu.Businesses), len(businesses))
	}

	for _, deletedID := range vu.DeletedBusinesses {
		if _, err := vu.Client.GetBusiness(ctx, deletedID); err == nil {
			return fmt.Errorf("virtual user %d: deleted business %s still exists", vu.Index, deletedID)
		}
	}
	for _, deletedID := range vu.DeletedContacts {
		if _, err := vu.Client.GetContact(ctx, deletedID); err == nil {
			return fmt.Errorf("virtual user %d: deleted contact %s still exists", vu.Index, deletedID)
		}
	}

	for _, business := range vu.Businesses {
		contacts, err := vu.Client.ListContacts(ctx, business.ID)
		if err != nil {
			return fmt.Errorf("virtual user %d failed to list contacts for %s: %w", vu.Index, business.ID, err)
		}
		if len(contacts) != len(vu.Contacts[business.ID]) {
			return fmt.Errorf("virtual user %d contact count mismatch for %s: expected %d, got %d",
				vu.Index, business.ID, len(vu.Contacts[business.ID]), len(contacts))
		}

		notes, err := vu.Client.ListNotes(ctx, business.ID)
		if err != nil {
			return fmt.Errorf("virtual user %d failed to list notes for %s: %w", vu.Index, business.ID, err)
		}
		if len(notes) != len(vu.Notes[business.ID]) {
			return fmt.Errorf("virtual user %d note count mismatch for %s: expected %d, got %d",
				vu.Index, business.ID, len(vu.Notes[business.ID]), len(notes))
		}
	}

	return nil
}

// RunScenario executes a full research session: register, build a pipeline,
// then verify. Even-indexed users only create; odd-indexed users also prune
// contacts and drop a business, exercising deletes and cascades.
func (vu *VirtualUser) RunScenario(ctx context.Context) error {
	if err := vu.Register(ctx); err != nil {
		return err
	}

	deleteBias := vu.Index%2 == 1

	numBusinesses := vu.RNG.Intn(3) + 1
	for i := 0; i < numBusinesses; i++ {
		business, err := vu.CreateBusiness(ctx, fmt.Sprintf("Business %d-%d", vu.Index, i))
		if err != nil {
			return err
		}

		numContacts := vu.RNG.Intn(4) + 1
		for j := 0; j < numContacts; j++ {
			contact, err := vu.CreateContact(ctx, business.ID,
				fmt.Sprintf("First%d", j), fmt.Sprintf("Last%d-%d", vu.Index, i))
			if err != nil {
				return err
			}

			// Log an interaction now and then (30% chance)
			if vu.RNG.Float32() < 0.3 {
				if _, err := vu.Client.AddInteraction(ctx, contact.ID, models.Interaction{
					Type:  models.InteractionEmail,
					Notes: "Automated outreach",
				}); err != nil {
					return fmt.Errorf("virtual user %d add interaction failed: %w", vu.Index, err)
				}
			}

			// Prune a contact occasionally (20% chance for odd indices)
			if deleteBias && vu.RNG.Float32() < 0.2 && len(vu.Contacts[business.ID]) > 1 {
				if err := vu.DeleteContact(ctx, business.ID, contact.ID); err != nil {
					return err
				}
			}
		}

		numNotes := vu.RNG.Intn(3) + 1
		for j := 0; j < numNotes; j++ {
			if _, err := vu.CreateNote(ctx, business.ID,
				fmt.Sprintf("Note %d-%d-%d", vu.Index, i, j),
				fmt.Sprintf("Research findings %d for business %d", j, i)); err != nil {
				return err
			}
		}

		if _, err := vu.CreateTask(ctx, business.ID, fmt.Sprintf("Follow up %d-%d", vu.Index, i)); err != nil {
			return err
		}

		// Drop a whole business occasionally (10% chance for odd indices)
		if deleteBias && vu.RNG.Float32() < 0.1 && len(vu.Businesses) > 1 && i < numBusinesses-1 {
			if err := vu.DeleteBusiness(ctx, business.ID); err != nil {
				return err
			}
		}
	}

	return vu.VerifyAllData(ctx)
}
