package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/models"
	"go.uber.org/zap"
)

// Client talks to the remote store over its HTTP data API. One client
// is shared across requests; per-call scoping happens through the
// orgID argument on every method, never through client state.
type Client struct {
	baseURL  string
	pluginID string
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(baseURL, pluginID string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		pluginID: pluginID,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// dataRequest is the body shape shared by the write, read, and delete
// endpoints of the store's data API.
type dataRequest struct {
	PluginID       string       `json:"plugin_id"`
	OrganizationID string       `json:"organization_id"`
	CollectionName string       `json:"collection_name"`
	ObjectID       string       `json:"object_id,omitempty"`
	Filter         Query        `json:"filter,omitempty"`
	Options        *ReadOptions `json:"options,omitempty"`
	Payload        any          `json:"payload,omitempty"`
}

type dataResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type writeResult struct {
	InsertCount int    `json:"insert_count"`
	ObjectID    string `json:"object_id"`
}

func (c *Client) Write(ctx context.Context, orgID, collection string, doc any) (string, error) {
	body := dataRequest{
		PluginID:       c.pluginID,
		OrganizationID: orgID,
		CollectionName: collection,
		Payload:        doc,
	}
	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/data/write", body)
	if err != nil {
		return "", err
	}
	if resp.code != http.StatusCreated {
		return "", remoteError(resp)
	}
	var parsed dataResponse
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return "", fmt.Errorf("decode write response: %w", err)
	}
	var result writeResult
	if err := json.Unmarshal(parsed.Data, &result); err != nil {
		return "", fmt.Errorf("decode write result: %w", err)
	}
	c.logger.Debug("document written",
		zap.String("collection", collection),
		zap.String("object_id", result.ObjectID),
	)
	return result.ObjectID, nil
}

func (c *Client) Update(ctx context.Context, orgID, collection, id string, patch any) error {
	body := dataRequest{
		PluginID:       c.pluginID,
		OrganizationID: orgID,
		CollectionName: collection,
		ObjectID:       id,
		Payload:        patch,
	}
	resp, err := c.send(ctx, http.MethodPut, c.baseURL+"/data/write", body)
	if err != nil {
		return err
	}
	if resp.code != http.StatusOK {
		return remoteError(resp)
	}
	return nil
}

func (c *Client) ReadOne(ctx context.Context, orgID, collection string, query Query, opts *ReadOptions) (json.RawMessage, error) {
	docs, err := c.read(ctx, orgID, collection, query, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (c *Client) ReadMany(ctx context.Context, orgID, collection string, query Query, opts *ReadOptions) ([]json.RawMessage, error) {
	return c.read(ctx, orgID, collection, query, opts)
}

func (c *Client) read(ctx context.Context, orgID, collection string, query Query, opts *ReadOptions) ([]json.RawMessage, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}
	body := dataRequest{
		PluginID:       c.pluginID,
		OrganizationID: orgID,
		CollectionName: collection,
		Filter:         query,
		Options:        opts,
	}
	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/data/read", body)
	if err != nil {
		return nil, err
	}
	if resp.code != http.StatusOK {
		return nil, remoteError(resp)
	}
	var parsed dataResponse
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return nil, fmt.Errorf("decode read response: %w", err)
	}
	return splitDocs(parsed.Data)
}

func (c *Client) Delete(ctx context.Context, orgID, collection, id string) error {
	body := dataRequest{
		PluginID:       c.pluginID,
		OrganizationID: orgID,
		CollectionName: collection,
		ObjectID:       id,
	}
	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/data/delete", body)
	if err != nil {
		return err
	}
	if resp.code != http.StatusOK {
		return remoteError(resp)
	}
	return nil
}

func (c *Client) OrgMembers(ctx context.Context, orgID string) ([]models.OrgMember, error) {
	url := fmt.Sprintf("%s/organizations/%s/members/", c.baseURL, orgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build members request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read members body: %v", ErrUnavailable, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, &RemoteError{StatusCode: res.StatusCode, Message: string(raw)}
	}
	var parsed struct {
		Data []models.OrgMember `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode members response: %w", err)
	}
	return parsed.Data, nil
}

type response struct {
	code int
	body []byte
}

func (c *Client) send(ctx context.Context, method, url string, body dataRequest) (*response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("store request failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUnavailable, err)
	}
	return &response{code: res.StatusCode, body: raw}, nil
}

func remoteError(resp *response) error {
	var parsed dataResponse
	msg := string(resp.body)
	if err := json.Unmarshal(resp.body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	return &RemoteError{StatusCode: resp.code, Message: msg}
}

// splitDocs normalizes the data field: the store returns null when
// nothing matches, a single object for id lookups, and an array
// otherwise.
func splitDocs(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	if trimmed[0] == '[' {
		var docs []json.RawMessage
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decode document list: %w", err)
		}
		return docs, nil
	}
	return []json.RawMessage{trimmed}, nil
}
