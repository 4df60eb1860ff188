package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
)

// flexID decodes an item identifier that may arrive as a JSON number or a
// string, normalized to the canonical numeric form.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	id, err := domain.NormalizeItemID(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*f = flexID(id)
	return nil
}

func (c *Client) MyProgress(ctx context.Context) (*ports.ProgressSnapshot, error) {
	var resp struct {
		CompletedVideos []flexID `json:"completed_videos"`
		CompletedTasks  []flexID `json:"completed_tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/progress/my_progress/", nil, true, &resp); err != nil {
		return nil, err
	}
	return &ports.ProgressSnapshot{
		CompletedVideos: toInt64s(resp.CompletedVideos),
		CompletedTasks:  toInt64s(resp.CompletedTasks),
	}, nil
}

func (c *Client) CompleteVideo(ctx context.Context, id int64) error {
	body := map[string]int64{"video_id": id}
	return c.do(ctx, http.MethodPost, "/progress/complete_video/", body, true, nil)
}

func (c *Client) CompleteTask(ctx context.Context, id int64) error {
	body := map[string]int64{"task_id": id}
	return c.do(ctx, http.MethodPost, "/progress/complete_task/", body, true, nil)
}

func toInt64s(ids []flexID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
