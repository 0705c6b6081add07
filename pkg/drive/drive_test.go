package drive

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
)

// fakeGraph is a minimal in-memory stand-in for the Graph drive API: folder
// listing with a name filter, folder creation, path-based upload, children
// listing, delete, createLink, and content download.
type fakeGraph struct {
	mu      sync.Mutex
	nextID  int
	folders map[string]map[string]string // parentID -> name -> folderID
	files   map[string]fakeFile          // fileID -> file

	folderCreations  int
	conflictOnCreate bool   // next folder create loses a race: a winner appears and 409 is returned
	wantToken        string // when set, other tokens get 401
}

type fakeFile struct {
	id       string
	name     string
	parent   string
	mimeType string
	data     []byte
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{folders: map[string]map[string]string{}, files: map[string]fakeFile{}}
}

func (g *fakeGraph) newID(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s-%d", prefix, g.nextID)
}

func (g *fakeGraph) item(id, name string, folder bool) map[string]any {
	item := map[string]any{
		"id":     id,
		"name":   name,
		"webUrl": "https://drive.example/" + id,
	}
	if folder {
		item["folder"] = map[string]any{}
	} else {
		item["file"] = map[string]any{"mimeType": g.files[id].mimeType}
		item["size"] = len(g.files[id].data)
		item["@microsoft.graph.downloadUrl"] = "https://drive.example/" + id + "/raw"
	}
	return item
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.wantToken != "" && r.Header.Get("Authorization") != "Bearer "+g.wantToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/me/drive")
	parent := "root"
	if strings.HasPrefix(path, "/items/") {
		path = strings.TrimPrefix(path, "/items/")
	} else {
		path = strings.TrimPrefix(path, "/")
	}
	switch {
	case strings.HasSuffix(path, "/children") || path == "root/children":
		parent = strings.TrimSuffix(path, "/children")
		g.serveChildren(w, r, parent)
	case strings.Contains(path, ":/"):
		g.serveUpload(w, r, path)
	case strings.HasSuffix(path, "/createLink"):
		id := strings.TrimSuffix(path, "/createLink")
		json.NewEncoder(w).Encode(map[string]any{"link": map[string]any{"webUrl": "https://share.example/" + id}})
	case strings.HasSuffix(path, "/content"):
		id := strings.TrimSuffix(path, "/content")
		f, ok := g.files[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(f.data)
	case r.Method == http.MethodDelete:
		if _, ok := g.files[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(g.files, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *fakeGraph) serveChildren(w http.ResponseWriter, r *http.Request, parent string) {
	switch r.Method {
	case http.MethodGet:
		value := []map[string]any{}
		if filter := r.URL.Query().Get("$filter"); filter != "" {
			// name eq '<name>' and folder ne null
			name := strings.SplitN(filter, "'", 3)[1]
			if id, ok := g.folders[parent][name]; ok {
				value = append(value, g.item(id, name, true))
			}
		} else {
			for name, id := range g.folders[parent] {
				value = append(value, g.item(id, name, true))
			}
			for id, f := range g.files {
				if f.parent == parent {
					value = append(value, g.item(id, f.name, false))
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"value": value})
	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if g.folders[parent] == nil {
			g.folders[parent] = map[string]string{}
		}
		if g.conflictOnCreate {
			// A concurrent caller created the folder between this
			// caller's lookup and its create.
			g.conflictOnCreate = false
			g.folders[parent][body.Name] = g.newID("folder")
		}
		if _, exists := g.folders[parent][body.Name]; exists {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "nameAlreadyExists"}})
			return
		}
		g.folderCreations++
		id := g.newID("folder")
		g.folders[parent][body.Name] = id
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(g.item(id, body.Name, true))
	}
}

func (g *fakeGraph) serveUpload(w http.ResponseWriter, r *http.Request, path string) {
	// <folderID>:/<name>:/content
	parts := strings.SplitN(path, ":/", 3)
	folderID, name := parts[0], parts[1]
	data, _ := io.ReadAll(r.Body)
	id := g.newID("file")
	g.files[id] = fakeFile{id: id, name: name, parent: folderID, mimeType: r.Header.Get("Content-Type"), data: data}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(g.item(id, name, false))
}

func newTestClient(t *testing.T, ts TokenSource) (*Client, *fakeGraph) {
	t.Helper()
	graph := newFakeGraph()
	srv := httptest.NewServer(graph)
	t.Cleanup(srv.Close)
	if ts == nil {
		ts = StaticTokenSource("token")
	}
	return NewClient(ts, WithBaseURL(srv.URL)), graph
}

func TestResolvePathMemoizesFolderIDs(t *testing.T) {
	ctx := context.Background()
	client, graph := newTestClient(t, nil)

	first, err := client.ResolvePath(ctx, "business_42", "invoices")
	require.NoError(t, err)
	second, err := client.ResolvePath(ctx, "business_42", "invoices")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, graph.folderCreations, "one creation per segment")
}

// TestResolvePathConvergesOnCreateConflict loses the folder creation race:
// between this client's lookup and its create, another writer makes the
// folder, and the create answers 409. The client must settle on the winner's
// folder rather than erroring or duplicating it.
func TestResolvePathConvergesOnCreateConflict(t *testing.T) {
	ctx := context.Background()
	client, graph := newTestClient(t, nil)

	graph.conflictOnCreate = true
	id, err := client.ResolvePath(ctx, "shared")
	require.NoError(t, err)

	graph.mu.Lock()
	winner := graph.folders["root"]["shared"]
	graph.mu.Unlock()
	assert.Equal(t, winner, id)
	assert.Equal(t, 0, graph.folderCreations, "the losing create must not add a folder")
}

func TestUploadTwiceCreatesEachFolderOnce(t *testing.T) {
	ctx := context.Background()
	client, graph := newTestClient(t, nil)

	segments := []string{"business_42", "invoices"}
	_, err := client.Upload(ctx, segments, "a.pdf", "application/pdf", []byte("aaa"))
	require.NoError(t, err)
	_, err = client.Upload(ctx, segments, "b.pdf", "application/pdf", []byte("bbb"))
	require.NoError(t, err)

	assert.Equal(t, 2, graph.folderCreations)
}

func TestUploadListDownloadDelete(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, nil)

	uploaded, err := client.Upload(ctx, []string{"acme", "documents"}, "report.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, uploaded.ID)
	assert.Equal(t, "report.txt", uploaded.Name)
	assert.NotEmpty(t, uploaded.ViewURL)

	files, err := client.List(ctx, "acme", "documents")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "report.txt", files[0].Name)
	assert.Equal(t, "text/plain", files[0].MIMEType)
	assert.Equal(t, int64(5), files[0].Size)

	rc, err := client.Download(ctx, uploaded.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, client.Delete(ctx, uploaded.ID))

	files, err = client.List(ctx, "acme", "documents")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDeleteUnknownIDReturnsNotFound(t *testing.T) {
	client, _ := newTestClient(t, nil)

	err := client.Delete(context.Background(), "missing")
	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.True(t, opErr.NotFound())
}

func TestShareReturnsLink(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, nil)

	uploaded, err := client.Upload(ctx, []string{"acme"}, "x.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	link, err := client.Share(ctx, uploaded.ID, "view", "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "https://share.example/"+uploaded.ID, link)
}

func TestExpiredTokenRefreshedAndRetriedOnce(t *testing.T) {
	ctx := context.Background()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "fresh",
			"refresh_token": "new-refresh",
		})
	}))
	defer tokenSrv.Close()

	var persistedAccess, persistedRefresh string
	source := NewMicrosoftTokenSource("client-id", "client-secret", "stale", "old-refresh")
	source.Endpoint = tokenSrv.URL
	source.Persist = func(ctx context.Context, access, refresh string) error {
		persistedAccess, persistedRefresh = access, refresh
		return nil
	}

	client, graph := newTestClient(t, source)
	graph.wantToken = "fresh"

	uploaded, err := client.Upload(ctx, []string{"acme"}, "x.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.NotEmpty(t, uploaded.ID)
	assert.Equal(t, "fresh", persistedAccess)
	assert.Equal(t, "new-refresh", persistedRefresh)
}

func TestStaticTokenNotRetriedOn401(t *testing.T) {
	client, graph := newTestClient(t, StaticTokenSource("wrong"))
	graph.wantToken = "right"

	_, err := client.Upload(context.Background(), []string{"acme"}, "x.txt", "text/plain", []byte("x"))
	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, http.StatusUnauthorized, opErr.StatusCode)
}
