package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"sync-photo-client/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 8 << 20

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client over HTTP with JSON bodies and bearer auth
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient creates a client for the API rooted at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetAuthToken sets the bearer token sent with every request
func (c *HTTPClient) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearAuthToken stops sending a bearer token
func (c *HTTPClient) ClearAuthToken() {
	c.SetAuthToken("")
}

// AuthToken returns the current bearer token
func (c *HTTPClient) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SignIn exchanges credentials for a token
func (c *HTTPClient) SignIn(ctx context.Context, req SignInRequest) (AuthResult, error) {
	return callJSON[AuthResult](ctx, c, http.MethodPost, "/auth/login", req)
}

// SignUp creates an account and returns its token
func (c *HTTPClient) SignUp(ctx context.Context, req SignUpRequest) (AuthResult, error) {
	return callJSON[AuthResult](ctx, c, http.MethodPost, "/auth/signup", req)
}

// GetCurrentUser returns the signed-in user
func (c *HTTPClient) GetCurrentUser(ctx context.Context) (models.User, error) {
	return callJSON[models.User](ctx, c, http.MethodGet, "/users/me", nil)
}

// UpdateProfile patches the signed-in user's profile
func (c *HTTPClient) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (models.User, error) {
	return callJSON[models.User](ctx, c, http.MethodPatch, "/users/me", req)
}

// CreateGroup creates a group owned by the signed-in user
func (c *HTTPClient) CreateGroup(ctx context.Context, req CreateGroupRequest) (models.Group, error) {
	return callJSON[models.Group](ctx, c, http.MethodPost, "/groups", req)
}

// GetAllGroups lists the groups the signed-in user belongs to
func (c *HTTPClient) GetAllGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := callJSON[[]models.Group](ctx, c, http.MethodGet, "/groups", nil)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

// GetGroupDetail returns one group
func (c *HTTPClient) GetGroupDetail(ctx context.Context, groupID string) (models.Group, error) {
	return callJSON[models.Group](ctx, c, http.MethodGet, "/groups/"+url.PathEscape(groupID), nil)
}

// JoinGroup joins a group by its code
func (c *HTTPClient) JoinGroup(ctx context.Context, req JoinGroupRequest) (models.Group, error) {
	return callJSON[models.Group](ctx, c, http.MethodPost, "/groups/join", req)
}

// GetGroupPhotos lists the photos of a group
func (c *HTTPClient) GetGroupPhotos(ctx context.Context, groupID string) ([]models.Photo, error) {
	photos, err := callJSON[[]models.Photo](ctx, c, http.MethodGet, groupPath(groupID)+"/photos", nil)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

// UploadPhoto uploads image bytes to a group as multipart form data
func (c *HTTPClient) UploadPhoto(ctx context.Context, groupID string, image []byte, capturedAt *time.Time) (models.Photo, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="photo"`)
	header.Set("Content-Type", http.DetectContentType(image))
	part, err := form.CreatePart(header)
	if err != nil {
		return models.Photo{}, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return models.Photo{}, fmt.Errorf("failed to write form part: %w", err)
	}
	if capturedAt != nil {
		if err := form.WriteField("capturedAt", capturedAt.UTC().Format(time.RFC3339)); err != nil {
			return models.Photo{}, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return models.Photo{}, fmt.Errorf("failed to close form: %w", err)
	}

	var resp Response[models.Photo]
	if err := c.send(ctx, http.MethodPost, groupPath(groupID)+"/photos", &buf, form.FormDataContentType(), &resp); err != nil {
		return models.Photo{}, err
	}
	return resp.Data, nil
}

// LikePhoto likes a photo as the signed-in user
func (c *HTTPClient) LikePhoto(ctx context.Context, groupID, photoID string) (LikeResult, error) {
	return callJSON[LikeResult](ctx, c, http.MethodPost, likePath(groupID, photoID), nil)
}

// UnlikePhoto removes the signed-in user's like
func (c *HTTPClient) UnlikePhoto(ctx context.Context, groupID, photoID string) (LikeResult, error) {
	return callJSON[LikeResult](ctx, c, http.MethodDelete, likePath(groupID, photoID), nil)
}

// SubmitFeedback sends feedback
func (c *HTTPClient) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	_, err := callJSON[json.RawMessage](ctx, c, http.MethodPost, "/feedback", req)
	return err
}

func callJSON[T any](ctx context.Context, c *HTTPClient, method, path string, in any) (T, error) {
	var zero T

	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	var resp Response[T]
	if err := c.send(ctx, method, path, body, contentType, &resp); err != nil {
		return zero, err
	}
	return resp.Data, nil
}

// send performs the request and classifies the outcome: no response is a
// NetworkError, a non-success status is an APIError, an unreadable body is a
// DecodeError. out is only filled on success.
func (c *HTTPClient) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("Request failed")
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("http_status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	var envelope Response[json.RawMessage]
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Status == "" {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{HTTPStatus: resp.StatusCode, Status: "error", Message: http.StatusText(resp.StatusCode)}
		}
		if err == nil {
			err = fmt.Errorf("missing status field")
		}
		return &DecodeError{Method: method, Path: path, Err: err}
	}

	if envelope.Status != StatusSuccess {
		return &APIError{HTTPStatus: resp.StatusCode, Status: envelope.Status, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	return nil
}

func groupPath(groupID string) string {
	return "/groups/" + url.PathEscape(groupID)
}

func likePath(groupID, photoID string) string {
	return groupPath(groupID) + "/photos/" + url.PathEscape(photoID) + "/like"
}
