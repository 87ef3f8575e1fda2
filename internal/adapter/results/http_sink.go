package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var _ output.ResultSink = (*HTTPSink)(nil)

// HTTPSink posts result payloads to the persistence backend. The backend
// upserts by task ID, which keeps redeliveries idempotent on its side.
type HTTPSink struct {
	baseURL string
	client  *http.Client
	logger  output.LoggerPort
}

func NewHTTPSink(baseURL string, logger output.LoggerPort) *HTTPSink {
	return &HTTPSink{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

func (s *HTTPSink) Deliver(ctx context.Context, payload entity.TaskResultPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal result payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/tasks/%s/result", s.baseURL, payload.TaskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend rejected result: %s", resp.Status)
	}
	s.logger.Debug("result delivered", "taskID", payload.TaskID, "status", resp.Status)
	return nil
}

// Fanout delivers to every sink, returning the first error after trying all
// of them.
type Fanout []output.ResultSink

func (f Fanout) Deliver(ctx context.Context, payload entity.TaskResultPayload) error {
	var firstErr error
	for _, sink := range f {
		if err := sink.Deliver(ctx, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
