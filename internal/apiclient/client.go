// Package apiclient talks to the vehicle REST API. Client implements the
// record editor's Backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"vehicle-admin/internal/editor"
	"vehicle-admin/internal/models"
)

// urlRefreshMargin: a memoized URL this close to expiry is fetched again.
const urlRefreshMargin = 30 * time.Second

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type User struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type signedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu    sync.Mutex
	token string
	urls  map[uint]map[uint]signedURL // vehicle id -> image id
}

var _ editor.Backend = (*Client)(nil)

func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
		token:   token,
		urls:    make(map[uint]map[uint]signedURL),
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, files []formFile, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.content); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, w.FormDataContentType(), &buf, out)
}

func vehiclePath(vehicleID uint, parts ...string) string {
	p := fmt.Sprintf("/api/vehicles/%d", vehicleID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// Login stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return User{}, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

// RegisterAdmin creates the first user; the server refuses once any user exists.
func (c *Client) RegisterAdmin(ctx context.Context, name, email, password string) (User, error) {
	var u User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register-admin", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &u)
	return u, err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u)
	return u, err
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

func (c *Client) CreateVehicle(ctx context.Context, v models.Vehicle) (models.VehicleAggregate, error) {
	var a models.VehicleAggregate
	err := c.doJSON(ctx, http.MethodPost, "/api/vehicles", v, &a)
	return a, err
}

func (c *Client) FetchVehicle(ctx context.Context, vehicleID uint) (models.VehicleAggregate, error) {
	var a models.VehicleAggregate
	err := c.doJSON(ctx, http.MethodGet, vehiclePath(vehicleID), nil, &a)
	return a, err
}

func (c *Client) UpdateVehicle(ctx context.Context, vehicleID uint, v models.Vehicle) (models.Vehicle, error) {
	var out models.Vehicle
	err := c.doJSON(ctx, http.MethodPut, vehiclePath(vehicleID, "vehicle"), v, &out)
	return out, err
}

func (c *Client) UpdateShipping(ctx context.Context, vehicleID uint, s models.VehicleShipping) (models.VehicleShipping, error) {
	var out models.VehicleShipping
	err := c.doJSON(ctx, http.MethodPut, vehiclePath(vehicleID, "shipping"), s, &out)
	return out, err
}

func (c *Client) UpdatePurchase(ctx context.Context, vehicleID uint, p models.VehiclePurchase) (models.VehiclePurchase, error) {
	var out models.VehiclePurchase
	err := c.doJSON(ctx, http.MethodPut, vehiclePath(vehicleID, "purchase"), p, &out)
	return out, err
}

func (c *Client) UpdateFinancials(ctx context.Context, vehicleID uint, f models.VehicleFinancials) (models.VehicleFinancials, error) {
	var out models.VehicleFinancials
	err := c.doJSON(ctx, http.MethodPut, vehiclePath(vehicleID, "financials"), f, &out)
	return out, err
}

func (c *Client) UpdateSales(ctx context.Context, vehicleID uint, s models.VehicleSales) (models.VehicleSales, error) {
	var out models.VehicleSales
	err := c.doJSON(ctx, http.MethodPut, vehiclePath(vehicleID, "sales"), s, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (c *Client) UploadDocument(ctx context.Context, vehicleID uint, f editor.FileUpload) (models.VehicleDocument, error) {
	var doc models.VehicleDocument
	err := c.doMultipart(ctx, vehiclePath(vehicleID, "documents"),
		map[string]string{"type": string(f.Type)},
		[]formFile{{field: "file", filename: f.Filename, content: f.Content}},
		&doc)
	return doc, err
}

func (c *Client) DeleteDocument(ctx context.Context, vehicleID, documentID uint) error {
	return c.doJSON(ctx, http.MethodDelete, vehiclePath(vehicleID, "documents", fmt.Sprint(documentID)), nil, nil)
}

func (c *Client) DocumentURL(ctx context.Context, vehicleID, documentID uint) (string, error) {
	var s signedURL
	if err := c.doJSON(ctx, http.MethodGet, vehiclePath(vehicleID, "documents", fmt.Sprint(documentID), "url"), nil, &s); err != nil {
		return "", err
	}
	return s.URL, nil
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func (c *Client) UploadImages(ctx context.Context, vehicleID uint, files []editor.FileUpload) ([]models.VehicleImage, error) {
	parts := make([]formFile, len(files))
	for i, f := range files {
		parts[i] = formFile{field: "images", filename: f.Filename, content: f.Content}
	}
	var out []models.VehicleImage
	err := c.doMultipart(ctx, vehiclePath(vehicleID, "images"), nil, parts, &out)
	return out, err
}

func (c *Client) SetPrimaryImage(ctx context.Context, vehicleID, imageID uint) error {
	return c.doJSON(ctx, http.MethodPut, vehiclePath(vehicleID, "images", fmt.Sprint(imageID), "primary"), nil, nil)
}

func (c *Client) DeleteImage(ctx context.Context, vehicleID, imageID uint) error {
	err := c.doJSON(ctx, http.MethodDelete, vehiclePath(vehicleID, "images", fmt.Sprint(imageID)), nil, nil)
	if err == nil {
		c.InvalidateImageURLs(vehicleID)
	}
	return err
}

// ImageURL returns a memoized signed URL while it has more than
// urlRefreshMargin left.
func (c *Client) ImageURL(ctx context.Context, vehicleID, imageID uint) (string, error) {
	c.mu.Lock()
	cached, ok := c.urls[vehicleID][imageID]
	c.mu.Unlock()
	if ok && c.now().Add(urlRefreshMargin).Before(cached.ExpiresAt) {
		return cached.URL, nil
	}

	var s signedURL
	if err := c.doJSON(ctx, http.MethodGet, vehiclePath(vehicleID, "images", fmt.Sprint(imageID), "url"), nil, &s); err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.urls[vehicleID] == nil {
		c.urls[vehicleID] = make(map[uint]signedURL)
	}
	c.urls[vehicleID][imageID] = s
	c.mu.Unlock()
	return s.URL, nil
}

func (c *Client) InvalidateImageURLs(vehicleID uint) {
	c.mu.Lock()
	delete(c.urls, vehicleID)
	c.mu.Unlock()
}
