package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/maestrohq/maestroctl/internal/conventions"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

const maxBodySize = 10 << 20

// ClientConfig is the configuration of the orchestrator REST client.
type ClientConfig struct {
	// BaseURL is the orchestrator URL (e.g. "http://localhost:8000").
	BaseURL string
	// HTTPClient is the HTTP client for the API requests.
	HTTPClient *http.Client
	// Timeout is used when no HTTP client is set.
	Timeout time.Duration
	Logger  log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = conventions.DefaultAPIURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Timeout <= 0 {
		c.Timeout = conventions.DefaultRequestTimeout
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.REST"})

	return nil
}

// Client is the orchestrator HTTP JSON API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

var _ orchestrator.Client = &Client{}

// NewClient returns a new orchestrator REST client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// --- JSON wire types (private, request bodies only, responses are parsed with gjson) ---

type createTaskJSON struct {
	Description string `json:"description"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id,omitempty"`
}

type createSessionJSON struct {
	UserID string `json:"user_id"`
}

// --- orchestrator.Client implementation ---

func (c *Client) CreateTask(ctx context.Context, r model.TaskRequest) (*model.TaskHandle, error) {
	body, err := c.do(ctx, http.MethodPost, apiPath("tasks"), nil, createTaskJSON{
		Description: r.Description,
		UserID:      r.UserID,
		SessionID:   r.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create task: %w", err)
	}

	res := gjson.ParseBytes(body)
	h := &model.TaskHandle{
		TaskID:    res.Get("task_id").String(),
		SessionID: res.Get("session_id").String(),
		Status:    model.ParseTaskStatus(res.Get("status").String()),
		Plan:      rawOf(res.Get("plan")),
		CreatedAt: parseTime(res.Get("created_at").String()),
	}
	if h.TaskID == "" {
		return nil, fmt.Errorf("could not create task: missing task id on response: %w", model.ErrNotValid)
	}
	c.logger.Debugf("Task %s created", h.TaskID)

	return h, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*model.TaskState, error) {
	body, err := c.do(ctx, http.MethodGet, apiPath("tasks", id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get task %s: %w", id, err)
	}

	res := gjson.ParseBytes(body)
	st := &model.TaskState{
		ID:          res.Get("id").String(),
		SessionID:   res.Get("session_id").String(),
		Description: res.Get("description").String(),
		Status:      model.ParseTaskStatus(res.Get("status").String()),
		Result:      rawOf(res.Get("result")),
		Error:       res.Get("error").String(),
		CreatedAt:   parseTime(res.Get("created_at").String()),
	}
	if st.ID == "" {
		st.ID = id
	}
	if t := parseTime(res.Get("completed_at").String()); !t.IsZero() {
		st.CompletedAt = &t
	}

	return st, nil
}

func (c *Client) CancelTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, apiPath("tasks", id, "cancel"), nil, nil)
	if err != nil {
		return fmt.Errorf("could not cancel task %s: %w", id, err)
	}

	return nil
}

func (c *Client) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	// Depending on the orchestrator version the user is read from the query or the body.
	q := url.Values{"user_id": []string{userID}}
	body, err := c.do(ctx, http.MethodPost, apiPath("sessions"), q, createSessionJSON{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	res := gjson.ParseBytes(body)
	s := &model.Session{
		ID:        res.Get("session_id").String(),
		UserID:    res.Get("user_id").String(),
		CreatedAt: parseTime(res.Get("created_at").String()),
	}
	if s.ID == "" {
		return nil, fmt.Errorf("could not create session: missing session id on response: %w", model.ErrNotValid)
	}
	if s.UserID == "" {
		s.UserID = userID
	}

	return s, nil
}

func (c *Client) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.do(ctx, http.MethodGet, apiPath("sessions", sessionID, "messages"), q, nil)
	if err != nil {
		return nil, fmt.Errorf("could not list session %s messages: %w", sessionID, err)
	}

	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		return nil, fmt.Errorf("message list is not an array: %w", model.ErrNotValid)
	}

	msgs := []model.Message{}
	for _, m := range res.Array() {
		// Anything not written by the user (agents, system) is shown as the assistant.
		role := model.RoleAssistant
		if m.Get("role").String() == string(model.RoleUser) {
			role = model.RoleUser
		}

		msgs = append(msgs, model.Message{
			ID:        m.Get("id").String(),
			SessionID: sessionID,
			Role:      role,
			Kind:      model.MessageKindText,
			Content:   m.Get("content").String(),
			Timestamp: parseTime(m.Get("timestamp").String()),
		})
	}

	return msgs, nil
}

func (c *Client) ListAgents(ctx context.Context, filter model.AgentFilter) ([]model.Agent, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("agent_type", string(filter.Type))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	body, err := c.do(ctx, http.MethodGet, apiPath("agents"), q, nil)
	if err != nil {
		return nil, fmt.Errorf("could not list agents: %w", err)
	}

	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		return nil, fmt.Errorf("agent list is not an array: %w", model.ErrNotValid)
	}

	agents := []model.Agent{}
	for _, a := range res.Array() {
		caps := []string{}
		for _, capability := range a.Get("capabilities").Array() {
			caps = append(caps, capability.String())
		}

		agents = append(agents, model.Agent{
			ID:           a.Get("id").String(),
			Name:         a.Get("name").String(),
			Description:  a.Get("description").String(),
			Type:         model.AgentType(a.Get("agent_type").String()),
			Endpoint:     a.Get("endpoint").String(),
			Capabilities: caps,
			Status:       model.AgentStatus(a.Get("status").String()),
			CreatedAt:    parseTime(a.Get("created_at").String()),
		})
	}

	return agents, nil
}

func (c *Client) GetAgentStats(ctx context.Context) (*model.AgentStats, error) {
	body, err := c.do(ctx, http.MethodGet, apiPath("agents", "stats"), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get agent stats: %w", err)
	}

	res := gjson.ParseBytes(body)
	stats := &model.AgentStats{
		Total:    int(res.Get("total").Int()),
		Active:   int(res.Get("active").Int()),
		Inactive: int(res.Get("inactive").Int()),
		Error:    int(res.Get("error").Int()),
		ByType:   map[string]int{},
	}
	res.Get("by_type").ForEach(func(k, v gjson.Result) bool {
		stats.ByType[k.String()] = int(v.Int())
		return true
	})

	return stats, nil
}

func (c *Client) CheckAgentHealth(ctx context.Context, agentID string) (*model.AgentHealth, error) {
	body, err := c.do(ctx, http.MethodPost, apiPath("agents", agentID, "health"), nil, nil)
	if err != nil {
		// Unhealthy agents are returned as a service unavailable with the check as detail.
		apiErr, ok := asAPIError(err)
		if !ok || apiErr.StatusCode != http.StatusServiceUnavailable {
			return nil, fmt.Errorf("could not check agent %s health: %w", agentID, err)
		}
		detail := gjson.GetBytes(apiErr.Body, "detail")
		if !detail.IsObject() {
			return nil, fmt.Errorf("could not check agent %s health: %w", agentID, err)
		}
		// Unknown agents come with an error detail and no check status.
		if !detail.Get("status").Exists() {
			return nil, fmt.Errorf("could not check agent %s health: %w: %w", agentID, model.ErrNotFound, err)
		}
		body = []byte(detail.Raw)
	}

	res := gjson.ParseBytes(body)
	h := &model.AgentHealth{
		AgentID:  res.Get("agent_id").String(),
		Status:   res.Get("status").String(),
		Error:    res.Get("error").String(),
		Response: rawOf(res.Get("response")),
	}
	if h.AgentID == "" {
		h.AgentID = agentID
	}

	return h, nil
}

func (c *Client) Health(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, conventions.HealthPath, nil, nil)
	if err != nil {
		return fmt.Errorf("orchestrator health check failed: %w", err)
	}

	if status := gjson.GetBytes(body, "status").String(); status != "" && status != "healthy" {
		return fmt.Errorf("orchestrator is %s", status)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debugf("%s %s", method, u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	if len(bytes.TrimSpace(respBody)) > 0 && !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("invalid JSON response: %w", model.ErrNotValid)
	}

	return respBody, nil
}

func apiPath(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}

	return conventions.APIPrefix + "/" + strings.Join(escaped, "/")
}

// rawOf returns the raw JSON of a result, nothing if missing or null.
func rawOf(r gjson.Result) json.RawMessage {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}

	return json.RawMessage(r.Raw)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTime parses orchestrator timestamps, they may come without zone and are UTC.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}
