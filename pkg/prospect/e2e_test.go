package prospect_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectcrm/prospect/pkg/client"
	"github.com/prospectcrm/prospect/pkg/content"
	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/prospect"
)

// newTestServer runs the full router against the in-memory store and returns
// a client pointed at it.
func newTestServer(t *testing.T, graphBaseURL string) *client.Client {
	t.Helper()

	app, err := prospect.New(&prospect.Config{
		Store:        "memory",
		ServerPort:   "0",
		GraphBaseURL: graphBaseURL,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})

	return client.NewClient(srv.URL)
}

// kickoffContent builds a small document: a heading and a paragraph reading
// "Hello" with "He" bold.
func kickoffContent(t *testing.T) string {
	t.Helper()
	ed := content.NewEditor()
	ed.ToggleBlockType(content.BlockHeaderOne)
	ed.InsertText("Kickoff")
	ed.HandleReturn()
	ed.ToggleBlockType(content.BlockUnstyled)
	ed.InsertText("Hello")
	ed.Select(content.Position{Block: 1, Offset: 0}, content.Position{Block: 1, Offset: 2})
	ed.ToggleInlineStyle(content.StyleBold)
	raw, err := content.Marshal(ed.Content())
	require.NoError(t, err)
	return raw
}

func TestHealthNeedsNoAuth(t *testing.T) {
	c := newTestServer(t, "")
	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, "memory", status["store"])
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	c := newTestServer(t, "")
	_, err := c.ListBusinesses(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t, "")

	reg, err := c.Register(ctx, "Grace Hopper", "grace@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)
	assert.Equal(t, "grace@example.com", reg.User.Email)

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, me.ID)

	require.NoError(t, c.Logout(ctx))
	_, err = c.CurrentUser(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")

	_, err = c.Login(ctx, "grace@example.com", "wrong password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")

	login, err := c.Login(ctx, "grace@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t, "")

	_, err := c.Register(ctx, "First", "dup@example.com", "password one")
	require.NoError(t, err)

	_, err = c.Register(ctx, "Second", "dup@example.com", "password two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

// TestResearchWorkflow walks the primary scenario end to end: a business, a
// contact with a logged interaction, a rich-text note read back both raw and
// rendered, a task and a saved article.
func TestResearchWorkflow(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t, "")

	_, err := c.Register(ctx, "Ada", "ada@example.com", "analytical1")
	require.NoError(t, err)

	business, err := c.CreateBusiness(ctx, &models.Business{
		Name:     "Acme Robotics",
		Industry: "Manufacturing",
		Stage:    models.StageResearching,
	})
	require.NoError(t, err)
	require.False(t, business.ID.IsZero())

	contact, err := c.CreateContact(ctx, &models.Contact{
		FirstName: "Jo",
		LastName:  "Nakamura",
		Position:  "CTO",
		CompanyID: business.ID,
		IsPrimary: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipNew, contact.RelationshipStrength)

	contact, err = c.AddInteraction(ctx, contact.ID, models.Interaction{
		Type:  models.InteractionCall,
		Notes: "Intro call",
	})
	require.NoError(t, err)
	require.Len(t, contact.Interactions, 1)
	require.NotNil(t, contact.LastContacted)

	raw := kickoffContent(t)
	note, err := c.CreateNote(ctx, &models.Note{
		Title:      "Kickoff",
		Content:    raw,
		BusinessID: business.ID,
		Tags:       models.Tags{"meeting"},
	})
	require.NoError(t, err)

	got, err := c.GetNote(ctx, note.ID)
	require.NoError(t, err)
	doc, err := content.Unmarshal(got.Content)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "Hello", doc.Blocks[1].Text)

	html, err := c.GetNoteHTML(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Kickoff</h1><p><strong>He</strong>llo</p>", html.HTML)

	task, err := c.CreateTask(ctx, &models.Task{
		Title:      "Send follow-up deck",
		BusinessID: &business.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)

	article, err := c.CreateArticle(ctx, &models.NewsArticle{
		Title:      "Acme raises Series B",
		Source:     "TechWire",
		BusinessID: business.ID,
	})
	require.NoError(t, err)
	assert.False(t, article.SavedAt.IsZero())

	contacts, err := c.ListContacts(ctx, business.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	notes, err := c.ListNotes(ctx, business.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	tasks, err := c.ListTasks(ctx, &business.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	articles, err := c.ListArticles(ctx, business.ID)
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	found, err := c.SearchContacts(ctx, "naka")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	foundNotes, err := c.SearchNotes(ctx, "kick")
	require.NoError(t, err)
	assert.Len(t, foundNotes, 1)
}

func TestMalformedNoteContentRejected(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t, "")

	_, err := c.Register(ctx, "Ada", "ada@example.com", "analytical1")
	require.NoError(t, err)
	business, err := c.CreateBusiness(ctx, &models.Business{Name: "Acme"})
	require.NoError(t, err)

	_, err = c.CreateNote(ctx, &models.Note{
		Title:      "Broken",
		Content:    "{not json",
		BusinessID: business.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

// TestOwnerIsolation verifies another user's records answer exactly like
// missing ones regardless of operation.
func TestOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	c1 := newTestServer(t, "")

	// Both clients talk to the same server; re-derive the base URL from
	// the first client by registering the second against it.
	_, err := c1.Register(ctx, "Owner", "owner@example.com", "ownerpass1")
	require.NoError(t, err)

	business, err := c1.CreateBusiness(ctx, &models.Business{Name: "Private Ltd"})
	require.NoError(t, err)

	raw := kickoffContent(t)
	note, err := c1.CreateNote(ctx, &models.Note{Title: "Secret", Content: raw, BusinessID: business.ID})
	require.NoError(t, err)

	// Second account on the same server
	c2 := *c1
	_, err = (&c2).Register(ctx, "Intruder", "intruder@example.com", "intruderpass")
	require.NoError(t, err)

	_, err = (&c2).GetBusiness(ctx, business.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	_, err = (&c2).GetNote(ctx, note.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	note.Title = "Hijacked"
	_, err = (&c2).UpdateNote(ctx, note)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	err = (&c2).DeleteBusiness(ctx, business.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	// Untouched for the owner
	got, err := c1.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Title)
}

// TestReparentingGuard verifies a note cannot be moved onto a business the
// caller does not own, and that the failed attempt persists nothing.
func TestReparentingGuard(t *testing.T) {
	ctx := context.Background()
	c1 := newTestServer(t, "")

	_, err := c1.Register(ctx, "One", "one@example.com", "password one")
	require.NoError(t, err)
	mine, err := c1.CreateBusiness(ctx, &models.Business{Name: "Mine"})
	require.NoError(t, err)
	note, err := c1.CreateNote(ctx, &models.Note{Title: "Note", Content: kickoffContent(t), BusinessID: mine.ID})
	require.NoError(t, err)

	c2 := *c1
	_, err = (&c2).Register(ctx, "Two", "two@example.com", "password two")
	require.NoError(t, err)
	theirs, err := (&c2).CreateBusiness(ctx, &models.Business{Name: "Theirs"})
	require.NoError(t, err)

	note.BusinessID = theirs.ID
	_, err = c1.UpdateNote(ctx, note)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	got, err := c1.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.BusinessID)
}

func TestDeleteBusinessCascades(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t, "")

	_, err := c.Register(ctx, "Ada", "ada@example.com", "analytical1")
	require.NoError(t, err)
	business, err := c.CreateBusiness(ctx, &models.Business{Name: "Doomed"})
	require.NoError(t, err)
	note, err := c.CreateNote(ctx, &models.Note{Title: "N", Content: kickoffContent(t), BusinessID: business.ID})
	require.NoError(t, err)
	contact, err := c.CreateContact(ctx, &models.Contact{FirstName: "A", LastName: "B", CompanyID: business.ID})
	require.NoError(t, err)

	require.NoError(t, c.DeleteBusiness(ctx, business.ID))

	_, err = c.GetNote(ctx, note.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
	_, err = c.GetContact(ctx, contact.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

// graphStub is a minimal Microsoft Graph lookalike backing the document
// endpoints in tests: folder resolution, upload, download, share, delete.
type graphStub struct {
	mu      sync.Mutex
	nextID  int
	folders map[string]map[string]string // parent -> name -> id
	files   map[string][]byte            // id -> content
}

func newGraphStub() *graphStub {
	return &graphStub{
		folders: map[string]map[string]string{},
		files:   map[string][]byte{},
	}
}

func (g *graphStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		path := r.URL.Path
		switch {
		case strings.Contains(path, ":/") && strings.HasSuffix(path, ":/content"):
			// PUT /me/drive/items/{folder}:/{name}:/content
			g.nextID++
			id := fmt.Sprintf("file-%d", g.nextID)
			data, _ := io.ReadAll(r.Body)
			g.files[id] = data
			name := strings.TrimSuffix(path[strings.Index(path, ":/")+2:], ":/content")
			writeJSON(w, http.StatusCreated, map[string]any{
				"id":     id,
				"name":   name,
				"size":   len(g.files[id]),
				"webUrl": "https://onedrive.example/" + id,
				"file":   map[string]any{"mimeType": r.Header.Get("Content-Type")},
			})
		case strings.HasSuffix(path, "/children"):
			parent := parentFromChildrenPath(path)
			if r.Method == http.MethodGet {
				name := filterName(r.URL.Query().Get("$filter"))
				if id, ok := g.folders[parent][name]; ok {
					writeJSON(w, http.StatusOK, map[string]any{
						"value": []map[string]any{{"id": id, "name": name, "folder": map[string]any{}}},
					})
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"value": []any{}})
				return
			}
			var req struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			g.nextID++
			id := fmt.Sprintf("folder-%d", g.nextID)
			if g.folders[parent] == nil {
				g.folders[parent] = map[string]string{}
			}
			g.folders[parent][req.Name] = id
			writeJSON(w, http.StatusCreated, map[string]any{
				"id": id, "name": req.Name, "folder": map[string]any{},
			})
		case strings.HasSuffix(path, "/createLink"):
			id := itemFromPath(path, "/createLink")
			writeJSON(w, http.StatusCreated, map[string]any{
				"link": map[string]any{"webUrl": "https://1drv.example/share/" + id},
			})
		case strings.HasSuffix(path, "/content"):
			id := itemFromPath(path, "/content")
			data, ok := g.files[id]
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"message": "not found"}})
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		case r.Method == http.MethodDelete:
			id := itemFromPath(path, "")
			delete(g.files, id)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"message": "unhandled: " + path}})
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parentFromChildrenPath extracts the parent folder id from
// /me/drive/items/{id}/children or /me/drive/root/children.
func parentFromChildrenPath(path string) string {
	trimmed := strings.TrimSuffix(path, "/children")
	if strings.HasSuffix(trimmed, "/root") {
		return "root"
	}
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

func itemFromPath(path, suffix string) string {
	trimmed := strings.TrimSuffix(path, suffix)
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

// filterName pulls the quoted name out of "name eq 'X' and folder ne null".
func filterName(filter string) string {
	parts := strings.SplitN(filter, "'", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()

	graph := httptest.NewServer(newGraphStub().handler())
	defer graph.Close()

	c := newTestServer(t, graph.URL)

	_, err := c.Register(ctx, "Ada", "ada@example.com", "analytical1")
	require.NoError(t, err)
	business, err := c.CreateBusiness(ctx, &models.Business{Name: "Acme Robotics"})
	require.NoError(t, err)

	// Upload requires a linked account
	_, err = c.UploadDocument(ctx, business.ID, "Pitch", "", "Decks", "pitch.pdf", "application/pdf", []byte("pdfbytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")

	_, err = c.LinkMicrosoft(ctx, "access-token", "refresh-token")
	require.NoError(t, err)

	doc, err := c.UploadDocument(ctx, business.ID, "Pitch", "Q3 pitch deck", "Decks", "pitch.pdf", "application/pdf", []byte("pdfbytes"))
	require.NoError(t, err)
	assert.Equal(t, "Pitch", doc.Name)
	assert.Equal(t, "application/pdf", doc.FileType)
	assert.NotEmpty(t, doc.DriveFileID)
	assert.Equal(t, int64(len("pdfbytes")), doc.FileSize)

	listed, err := c.ListDocuments(ctx, business.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	data, err := c.DownloadDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdfbytes"), data)

	share, err := c.ShareDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, share.URL, "https://1drv.example/share/")

	require.NoError(t, c.DeleteDocument(ctx, doc.ID))
	_, err = c.GetDocument(ctx, doc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestNoteMirroredToDrive(t *testing.T) {
	ctx := context.Background()

	graph := httptest.NewServer(newGraphStub().handler())
	defer graph.Close()

	c := newTestServer(t, graph.URL)

	_, err := c.Register(ctx, "Ada", "ada@example.com", "analytical1")
	require.NoError(t, err)
	_, err = c.LinkMicrosoft(ctx, "access-token", "refresh-token")
	require.NoError(t, err)

	business, err := c.CreateBusiness(ctx, &models.Business{Name: "Acme"})
	require.NoError(t, err)

	note, err := c.CreateNote(ctx, &models.Note{Title: "Kickoff", Content: kickoffContent(t), BusinessID: business.ID})
	require.NoError(t, err)

	// The mirror handle is persisted on the note
	got, err := c.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.DriveFileID)
	assert.Contains(t, got.DriveFileURL, "https://onedrive.example/")
}
