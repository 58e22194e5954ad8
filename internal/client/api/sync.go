package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

func (c *Client) Push(ctx context.Context, changes []request.PushChange) (*response.PushResponse, error) {
	var resp response.PushResponse
	if err := c.do(ctx, http.MethodPost, "/sync/push", request.PushRequest{Changes: changes}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pull reads one page of the feed after since. limit 0 uses the server default.
func (c *Client) Pull(ctx context.Context, since int64, limit int) (*response.PullResponse, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(since, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp response.PullResponse
	if err := c.do(ctx, http.MethodGet, "/sync/pull?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Conflicts(ctx context.Context) ([]response.ConflictResponse, error) {
	var resp response.ConflictListResponse
	if err := c.do(ctx, http.MethodGet, "/sync/conflicts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conflicts, nil
}

func (c *Client) Conflict(ctx context.Context, id uuid.UUID) (*response.ConflictResponse, error) {
	var resp response.ConflictResponse
	if err := c.do(ctx, http.MethodGet, "/sync/conflicts/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve closes a conflict and returns the entity head it left behind.
func (c *Client) Resolve(ctx context.Context, id uuid.UUID, resolution entity.Resolution) (*response.ChangeResponse, error) {
	var resp response.ResolveResponse
	body := request.ResolveRequest{Resolution: string(resolution)}
	if err := c.do(ctx, http.MethodPost, "/sync/conflicts/"+id.String()+"/resolve", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Change, nil
}
