package blockssvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
)

func newTestClient(baseURL string) *Client {
	conf := &core.Config{}
	conf.BlockService.BaseURL = baseURL
	conf.BlockService.Timeout = 5 * time.Second
	return NewClient(conf)
}

func Test_Client_GetBlocks(t *testing.T) {
	root := course.UsageKey("block-v1:Test+T101+2026+type@course+block@course")
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/blocks/", r.URL.Path)
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		_ = json.NewEncoder(w).Encode(course.BlockQueryResult{
			Root: root,
			Blocks: course.BlockMap{
				root: {ID: root, Type: course.BlockTypeCourse, DisplayName: "Test Course"},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	result, err := client.GetBlocks(context.Background(), "user-1", root, course.BlockQuery{
		NavDepth:        course.OutlineNavDepth,
		RequestedFields: []string{"children", "display_name", "type"},
		BlockTypes:      []course.BlockType{course.BlockTypeCourse, course.BlockTypeChapter},
	})
	require.NoError(t, err)

	assert.Equal(t, root, result.Root)
	require.Contains(t, result.Blocks, root)
	assert.Equal(t, "Test Course", result.Blocks[root].DisplayName)

	assert.Equal(t, root.String(), gotQuery["usage_key"])
	assert.Equal(t, "user-1", gotQuery["user_id"])
	assert.Equal(t, "dict", gotQuery["return_type"])
	assert.Equal(t, "3", gotQuery["nav_depth"])
	assert.Equal(t, "children,display_name,type", gotQuery["requested_fields"])
	assert.Equal(t, "course,chapter", gotQuery["block_types_filter"])
}

func Test_Client_GetBlocks_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "course not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetBlocks(context.Background(), "user-1", "block-v1:x", course.BlockQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
