// Package blockssvc is the HTTP client of the block-query service, the
// external collaborator resolving a course's content hierarchy for a user.
package blockssvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
)

type Client struct {
	baseURL string
	http    *http.Client
}

var _ course.BlockQuerier = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.BlockService.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.BlockService.Timeout},
	}
}

// GetBlocks queries the flat block map of the tree rooted at the given usage
// key, access-filtered for the user.
func (c *Client) GetBlocks(ctx context.Context, userID string, root course.UsageKey, query course.BlockQuery) (course.BlockQueryResult, error) {
	var result course.BlockQueryResult

	params := url.Values{}
	params.Set("usage_key", root.String())
	params.Set("user_id", userID)
	params.Set("return_type", "dict")
	if query.NavDepth > 0 {
		params.Set("nav_depth", strconv.Itoa(query.NavDepth))
	}
	if len(query.RequestedFields) > 0 {
		params.Set("requested_fields", strings.Join(query.RequestedFields, ","))
	}
	if len(query.BlockTypes) > 0 {
		types := make([]string, 0, len(query.BlockTypes))
		for _, bt := range query.BlockTypes {
			types = append(types, string(bt))
		}
		params.Set("block_types_filter", strings.Join(types, ","))
	}

	reqURL := c.baseURL + "/api/v1/blocks/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return result, errors.Wrap(err, "creating block query request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return result, errors.Wrap(err, "querying blocks")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return result, errors.Errorf("block query failed - status: %d - body: %s", res.StatusCode, body)
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return result, errors.Wrap(err, "decoding block query response")
	}
	return result, nil
}
