// Package client provides a Go HTTP client for programmatic access to the
// prospect API.
//
// [Client] mirrors the server's endpoint structure with strongly-typed
// methods for every operation: authentication, businesses, contacts, notes,
// documents, tasks and news articles. Requests and responses use the same
// [github.com/prospectcrm/prospect/pkg/models] entities as the server.
//
// Authentication is token based. Register and Login store the returned
// bearer token on the client, and every subsequent request carries it in the
// Authorization header until Logout clears it.
//
// Errors from the API surface as plain errors carrying the HTTP status code
// and response body. Client instances are safe for concurrent use once
// authenticated; SetAuthToken itself is not synchronized.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/prospectcrm/prospect/pkg/models"
)

// Client provides strongly-typed access to the prospect REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewClient creates a new prospect API client. The baseURL includes protocol
// and host (e.g. "http://localhost:8080") without a trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetAuthToken sets the authentication token for the client.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// doRequest performs an HTTP request with proper headers.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into the target struct.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// Business management

// CreateBusiness creates a new business.
func (c *Client) CreateBusiness(ctx context.Context, business *models.Business) (*models.Business, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/businesses", business)
	if err != nil {
		return nil, err
	}

	var result models.Business
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetBusiness retrieves a business by ID.
func (c *Client) GetBusiness(ctx context.Context, id models.BusinessID) (*models.Business, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/businesses/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Business
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListBusinesses lists the authenticated user's businesses.
func (c *Client) ListBusinesses(ctx context.Context) ([]*models.Business, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/businesses", nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Business
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateBusiness updates an existing business.
func (c *Client) UpdateBusiness(ctx context.Context, business *models.Business) (*models.Business, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/businesses/%s", business.ID), business)
	if err != nil {
		return nil, err
	}

	var result models.Business
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteBusiness deletes a business and all records attached to it.
func (c *Client) DeleteBusiness(ctx context.Context, id models.BusinessID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/businesses/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// Contact management

// CreateContact creates a new contact.
func (c *Client) CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/contacts", contact)
	if err != nil {
		return nil, err
	}

	var result models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetContact retrieves a contact by ID.
func (c *Client) GetContact(ctx context.Context, id models.ContactID) (*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/contacts/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListContacts lists contacts for a business.
func (c *Client) ListContacts(ctx context.Context, businessID models.BusinessID) ([]*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/businesses/%s/contacts", businessID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateContact updates an existing contact.
func (c *Client) UpdateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/contacts/%s", contact.ID), contact)
	if err != nil {
		return nil, err
	}

	var result models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteContact deletes a contact.
func (c *Client) DeleteContact(ctx context.Context, id models.ContactID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/contacts/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// SearchContacts searches the user's contacts by name, email or position.
func (c *Client) SearchContacts(ctx context.Context, query string) ([]*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/contacts/search?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// AddInteraction logs a touchpoint on a contact and returns the updated
// contact.
func (c *Client) AddInteraction(ctx context.Context, id models.ContactID, interaction models.Interaction) (*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/contacts/%s/interactions", id), interaction)
	if err != nil {
		return nil, err
	}

	var result models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// RemoveInteraction removes the interaction at the given index.
func (c *Client) RemoveInteraction(ctx context.Context, id models.ContactID, index int) (*models.Contact, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/contacts/%s/interactions/%d", id, index), nil)
	if err != nil {
		return nil, err
	}

	var result models.Contact
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Note management

// CreateNote creates a new note. Content must be a serialized block document.
func (c *Client) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/notes", note)
	if err != nil {
		return nil, err
	}

	var result models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetNote retrieves a note by ID.
func (c *Client) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/notes/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListNotes lists notes for a business.
func (c *Client) ListNotes(ctx context.Context, businessID models.BusinessID) ([]*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/businesses/%s/notes", businessID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateNote updates an existing note.
func (c *Client) UpdateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/notes/%s", note.ID), note)
	if err != nil {
		return nil, err
	}

	var result models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteNote deletes a note.
func (c *Client) DeleteNote(ctx context.Context, id models.NoteID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/notes/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// SearchNotes searches the user's notes by title or tag.
func (c *Client) SearchNotes(ctx context.Context, query string) ([]*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/notes/search?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// NoteHTMLResponse carries the rendered read-only projection of a note.
type NoteHTMLResponse struct {
	ID    models.NoteID `json:"id"`
	Title string        `json:"title"`
	HTML  string        `json:"html"`
}

// GetNoteHTML retrieves the rendered HTML projection of a note.
func (c *Client) GetNoteHTML(ctx context.Context, id models.NoteID) (*NoteHTMLResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/notes/%s/html", id), nil)
	if err != nil {
		return nil, err
	}

	var result NoteHTMLResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Document management

// UploadDocument uploads a file and creates its metadata record. The file
// bytes go to the user's OneDrive; only metadata is stored locally.
func (c *Client) UploadDocument(ctx context.Context, businessID models.BusinessID, name, description, category, filename, contentType string, data []byte) (*models.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("business_id", businessID.String())
	_ = mw.WriteField("name", name)
	_ = mw.WriteField("description", description)
	_ = mw.WriteField("category", category)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	var result models.Document
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetDocument retrieves a document's metadata by ID.
func (c *Client) GetDocument(ctx context.Context, id models.DocumentID) (*models.Document, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/documents/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Document
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListDocuments lists documents for a business.
func (c *Client) ListDocuments(ctx context.Context, businessID models.BusinessID) ([]*models.Document, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/businesses/%s/documents", businessID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Document
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// DownloadDocument streams the document's file content.
func (c *Client) DownloadDocument(ctx context.Context, id models.DocumentID) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/documents/%s/download", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// ShareResponse carries a sharing link created for a document.
type ShareResponse struct {
	URL string `json:"url"`
}

// ShareDocument creates an anonymous view link for the document.
func (c *Client) ShareDocument(ctx context.Context, id models.DocumentID) (*ShareResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/documents/%s/share", id), nil)
	if err != nil {
		return nil, err
	}

	var result ShareResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteDocument deletes a document and its remote file.
func (c *Client) DeleteDocument(ctx context.Context, id models.DocumentID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/documents/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// Task management

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/tasks", task)
	if err != nil {
		return nil, err
	}

	var result models.Task
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetTask retrieves a task by ID.
func (c *Client) GetTask(ctx context.Context, id models.TaskID) (*models.Task, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.Task
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListTasks lists the user's tasks, all of them or for one business.
func (c *Client) ListTasks(ctx context.Context, businessID *models.BusinessID) ([]*models.Task, error) {
	path := "/api/tasks"
	if businessID != nil {
		path = fmt.Sprintf("/api/businesses/%s/tasks", businessID)
	}
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result []*models.Task
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateTask updates an existing task.
func (c *Client) UpdateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%s", task.ID), task)
	if err != nil {
		return nil, err
	}

	var result models.Task
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id models.TaskID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}

// News article management

// CreateArticle saves a news article against a business.
func (c *Client) CreateArticle(ctx context.Context, article *models.NewsArticle) (*models.NewsArticle, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/articles", article)
	if err != nil {
		return nil, err
	}

	var result models.NewsArticle
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetArticle retrieves a news article by ID.
func (c *Client) GetArticle(ctx context.Context, id models.ArticleID) (*models.NewsArticle, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/articles/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.NewsArticle
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListArticles lists saved articles for a business.
func (c *Client) ListArticles(ctx context.Context, businessID models.BusinessID) ([]*models.NewsArticle, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/businesses/%s/articles", businessID), nil)
	if err != nil {
		return nil, err
	}

	var result []*models.NewsArticle
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateArticle updates a saved article.
func (c *Client) UpdateArticle(ctx context.Context, article *models.NewsArticle) (*models.NewsArticle, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/articles/%s", article.ID), article)
	if err != nil {
		return nil, err
	}

	var result models.NewsArticle
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteArticle deletes a saved article.
func (c *Client) DeleteArticle(ctx context.Context, id models.ArticleID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/articles/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}
