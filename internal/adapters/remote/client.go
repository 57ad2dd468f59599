package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/config"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// Client talks to the remote sections/notes API
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a client for cfg.BaseURL. A zero rate limit disables throttling.
func NewClient(cfg config.RemoteConfig, log *logger.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    limiter,
		logger:     log.WithComponent("remote"),
	}
}

var _ ports.RemoteAPI = (*Client)(nil)

type sectionRequest struct {
	ID string `json:"id,omitempty"`
	entities.TaskFields
}

type noteRequest struct {
	ID string `json:"id,omitempty"`
	entities.NoteFields
}

type credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Section operations

func (c *Client) CreateSection(ctx context.Context, token, id string, fields entities.TaskFields) (*entities.Task, error) {
	out := &entities.Task{ID: id, TaskFields: fields}
	err := c.do(ctx, "create section", http.MethodPost, "/sections", token, sectionRequest{ID: id, TaskFields: fields}, out)
	return out, err
}

func (c *Client) ListSections(ctx context.Context, token string) ([]*entities.Task, error) {
	var out []*entities.Task
	err := c.do(ctx, "list sections", http.MethodGet, "/sections", token, nil, &out)
	return out, err
}

func (c *Client) GetSection(ctx context.Context, token, id string) (*entities.Task, error) {
	var out entities.Task
	if err := c.do(ctx, "get section", http.MethodGet, sectionPath(id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSection(ctx context.Context, token, id string, fields entities.TaskFields) (*entities.Task, error) {
	out := &entities.Task{ID: id, TaskFields: fields}
	err := c.do(ctx, "update section", http.MethodPut, sectionPath(id), token, fields, out)
	return out, err
}

func (c *Client) DeleteSection(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete section", http.MethodDelete, sectionPath(id), token, nil, nil)
}

// Note operations

func (c *Client) CreateNote(ctx context.Context, token, sectionID, id string, fields entities.NoteFields) (*entities.Note, error) {
	out := &entities.Note{ID: id, SectionID: sectionID, NoteFields: fields}
	err := c.do(ctx, "create note", http.MethodPost, sectionPath(sectionID)+"/notes", token, noteRequest{ID: id, NoteFields: fields}, out)
	return out, err
}

func (c *Client) ListNotes(ctx context.Context, token, sectionID string) ([]*entities.Note, error) {
	var out []*entities.Note
	err := c.do(ctx, "list notes", http.MethodGet, sectionPath(sectionID)+"/notes", token, nil, &out)
	return out, err
}

func (c *Client) GetNote(ctx context.Context, token, sectionID, noteID string) (*entities.Note, error) {
	var out entities.Note
	if err := c.do(ctx, "get note", http.MethodGet, notePath(sectionID, noteID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateNote(ctx context.Context, token, sectionID, noteID string, fields entities.NoteFields) (*entities.Note, error) {
	out := &entities.Note{ID: noteID, SectionID: sectionID, NoteFields: fields}
	err := c.do(ctx, "update note", http.MethodPut, notePath(sectionID, noteID), token, fields, out)
	return out, err
}

func (c *Client) DeleteNote(ctx context.Context, token, sectionID, noteID string) error {
	return c.do(ctx, "delete note", http.MethodDelete, notePath(sectionID, noteID), token, nil, nil)
}

// Account operations

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, nickname, password string) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, "login", http.MethodPost, "/login", "", credentials{nickname, password}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &entities.NetworkError{Op: "login", StatusCode: http.StatusOK, Body: "response carries no access_token"}
	}
	return out.AccessToken, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, nickname, password string) error {
	return c.do(ctx, "register", http.MethodPost, "/register", "", credentials{nickname, password}, nil)
}

func sectionPath(id string) string {
	return "/sections/" + url.PathEscape(id)
}

func notePath(sectionID, noteID string) string {
	return sectionPath(sectionID) + "/notes/" + url.PathEscape(noteID)
}

// do sends one request. Non-2xx responses and transport failures become
// *entities.NetworkError. out is left untouched when the body is empty.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &entities.NetworkError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entities.NetworkError{Op: op, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debugw("Failed to close response body", "error", err)
		}
	}()

	// A body cut off mid-read is a transport failure whatever the status said
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entities.NetworkError{Op: op, Err: fmt.Errorf("read response (status %d): %w", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debugw("Remote call rejected", "op", op, "status", resp.StatusCode)
		return &entities.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &entities.ParseError{Source: op + " response", Err: err}
	}

	return nil
}
