// Package drive is a client for Microsoft Graph OneDrive storage. Files are
// addressed by hierarchical path segments resolved to folder ids through a
// per-client memoization cache, so repeated uploads into the same folder do
// not repeat folder lookups.
//
// Every operation returns an explicit error; callers treat a storage failure
// as non-fatal to whatever record they were saving and surface it as a
// warning instead.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Error reports a failed storage operation. StatusCode is zero when the
// request never reached the service.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("drive: %s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("drive: %s: %s", e.Op, e.Message)
}

// NotFound reports whether the failure was the service not knowing the id.
func (e *Error) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// File describes a stored file in the normalized shape callers consume.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MIMEType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	ViewURL     string    `json:"view_url"`
	DownloadURL string    `json:"download_url"`
}

// Client talks to one user's drive. Each client owns its folder-id cache;
// clients are not shared across users.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource

	mu      sync.Mutex
	folders map[string]string // "parentID/name" -> folder id
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different Graph endpoint. Tests use it
// to target a local fake.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.base = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a drive client authenticating with tokens.
func NewClient(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		base:    DefaultBaseURL,
		http:    http.DefaultClient,
		tokens:  tokens,
		folders: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// driveItem is the Graph wire shape for files and folders.
type driveItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	WebURL      string    `json:"webUrl"`
	DownloadURL string    `json:"@microsoft.graph.downloadUrl"`
	CreatedAt   time.Time `json:"createdDateTime"`
	ModifiedAt  time.Time `json:"lastModifiedDateTime"`
	File        *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
	Folder *struct{} `json:"folder"`
}

func (d driveItem) toFile() File {
	f := File{
		ID:          d.ID,
		Name:        d.Name,
		Size:        d.Size,
		CreatedAt:   d.CreatedAt,
		ModifiedAt:  d.ModifiedAt,
		ViewURL:     d.WebURL,
		DownloadURL: d.DownloadURL,
	}
	if d.File != nil {
		f.MIMEType = d.File.MimeType
	}
	return f
}

// ResolvePath resolves each path segment to a folder id under the previous
// one, creating folders that do not exist, and returns the id of the last
// segment. Resolved pairs are memoized for the lifetime of the client.
// Concurrent first-time resolution of the same new path races on creation;
// the losers get a conflict from the service and converge on the winner's
// folder by looking it up again.
func (c *Client) ResolvePath(ctx context.Context, segments ...string) (string, error) {
	parent := "root"
	for _, name := range segments {
		key := parent + "/" + name
		c.mu.Lock()
		id, ok := c.folders[key]
		c.mu.Unlock()
		if !ok {
			var err error
			id, err = c.ensureFolder(ctx, parent, name)
			if err != nil {
				return "", err
			}
			c.mu.Lock()
			c.folders[key] = id
			c.mu.Unlock()
		}
		parent = id
	}
	return parent, nil
}

// ensureFolder finds a child folder by name under parent, creating it when
// the lookup comes back empty. Creation uses the fail conflict behavior so a
// concurrent create of the same name surfaces as 409 instead of silently
// producing a renamed duplicate; the conflict is resolved by looking up the
// folder that won.
func (c *Client) ensureFolder(ctx context.Context, parent, name string) (string, error) {
	id, err := c.lookupFolder(ctx, parent, name)
	if err != nil || id != "" {
		return id, err
	}

	body, _ := json.Marshal(map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "fail",
	})
	resp, err := c.do(ctx, http.MethodPost, c.itemURL(parent, "/children"), "application/json", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		id, err := c.lookupFolder(ctx, parent, name)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", &Error{Op: "resolve", Message: fmt.Sprintf("folder %q conflicted on create but is not listed", name)}
		}
		return id, nil
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", c.opError("resolve", resp)
	}
	var folder driveItem
	if err := json.NewDecoder(resp.Body).Decode(&folder); err != nil {
		return "", &Error{Op: "resolve", Message: fmt.Sprintf("decoding created folder: %v", err)}
	}
	return folder.ID, nil
}

// lookupFolder returns the id of the child folder named name under parent,
// or "" when no such folder exists.
func (c *Client) lookupFolder(ctx context.Context, parent, name string) (string, error) {
	filter := url.QueryEscape(fmt.Sprintf("name eq '%s' and folder ne null", name))
	resp, err := c.do(ctx, http.MethodGet, c.itemURL(parent, "/children?$filter="+filter), "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.opError("resolve", resp)
	}
	var listing struct {
		Value []driveItem `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", &Error{Op: "resolve", Message: fmt.Sprintf("decoding folder listing: %v", err)}
	}
	if len(listing.Value) == 0 {
		return "", nil
	}
	return listing.Value[0].ID, nil
}

// Upload writes data as a file named name inside the folder addressed by
// segments, creating the folder path as needed. An existing file of the same
// name is replaced.
func (c *Client) Upload(ctx context.Context, segments []string, name, contentType string, data []byte) (*File, error) {
	folderID, err := c.ResolvePath(ctx, segments...)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	u := fmt.Sprintf("%s/me/drive/items/%s:/%s:/content", c.base, folderID, url.PathEscape(name))
	resp, err := c.do(ctx, http.MethodPut, u, contentType, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.opError("upload", resp)
	}
	var item driveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, &Error{Op: "upload", Message: fmt.Sprintf("decoding upload response: %v", err)}
	}
	f := item.toFile()
	return &f, nil
}

// List returns the files inside the folder addressed by segments. Folders in
// the listing are skipped.
func (c *Client) List(ctx context.Context, segments ...string) ([]File, error) {
	folderID, err := c.ResolvePath(ctx, segments...)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, c.itemURL(folderID, "/children"), "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.opError("list", resp)
	}
	var listing struct {
		Value []driveItem `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, &Error{Op: "list", Message: fmt.Sprintf("decoding listing: %v", err)}
	}
	files := make([]File, 0, len(listing.Value))
	for _, item := range listing.Value {
		if item.Folder != nil {
			continue
		}
		files = append(files, item.toFile())
	}
	return files, nil
}

// Delete removes the file with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.itemURL(id, ""), "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.opError("delete", resp)
	}
	return nil
}

// Share creates a sharing link for the file with the given id. Role is
// "view" or "edit"; audience is "anonymous" or "organization".
func (c *Client) Share(ctx context.Context, id, role, audience string) (string, error) {
	body, _ := json.Marshal(map[string]string{"type": role, "scope": audience})
	resp, err := c.do(ctx, http.MethodPost, c.itemURL(id, "/createLink"), "application/json", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", c.opError("share", resp)
	}
	var link struct {
		Link struct {
			WebURL string `json:"webUrl"`
		} `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", &Error{Op: "share", Message: fmt.Sprintf("decoding share response: %v", err)}
	}
	return link.Link.WebURL, nil
}

// Download streams the content of the file with the given id. The caller
// must close the returned reader.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, c.itemURL(id, "/content"), "", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.opError("download", resp)
	}
	return resp.Body, nil
}

// itemURL builds a /me/drive URL for an item id, where "root" addresses the
// drive root.
func (c *Client) itemURL(id, suffix string) string {
	if id == "root" {
		return c.base + "/me/drive/root" + suffix
	}
	return c.base + "/me/drive/items/" + id + suffix
}

// do executes one authenticated request. A 401 response triggers a single
// token refresh and retry when the token source supports it.
func (c *Client) do(ctx context.Context, method, u, contentType string, body []byte) (*http.Response, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, method, u, contentType, body, tok)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	refresher, ok := c.tokens.(RefreshableTokenSource)
	if !ok {
		return resp, nil
	}
	resp.Body.Close()
	tok, err = refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, u, contentType, body, tok)
}

func (c *Client) send(ctx context.Context, method, u, contentType string, body []byte, tok string) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, &Error{Op: method, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		var opErr *Error
		if errors.As(err, &opErr) {
			return nil, opErr
		}
		return nil, &Error{Op: method, Message: err.Error()}
	}
	return resp, nil
}

// opError drains an error response into a typed Error.
func (c *Client) opError(op string, resp *http.Response) *Error {
	msg := "request failed"
	var graphErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&graphErr); err == nil && graphErr.Error.Message != "" {
		msg = graphErr.Error.Message
	}
	return &Error{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
