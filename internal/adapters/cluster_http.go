package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/resilience"
)

// HTTPClusterIntrospection talks to a cluster-introspection sidecar over
// HTTP/JSON, following the same request shape as HTTPMetricsSource.
type HTTPClusterIntrospection struct {
	baseURL    string
	httpClient *http.Client
	exec       *resilience.Executor
}

// NewHTTPClusterIntrospection constructs a cluster-introspection client.
func NewHTTPClusterIntrospection(baseURL string, timeout time.Duration) *HTTPClusterIntrospection {
	return &HTTPClusterIntrospection{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		exec:       resilience.NewExecutor("cluster-introspection"),
	}
}

func (c *HTTPClusterIntrospection) ListPods(ctx context.Context, selector string) ([]Pod, error) {
	var pods []Pod
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		var response struct {
			Pods []Pod `json:"pods"`
		}
		if err := c.get(ctx, "/pods?selector="+url.QueryEscape(selector), &response); err != nil {
			return err
		}
		pods = response.Pods
		return nil
	})
	return pods, err
}

func (c *HTTPClusterIntrospection) FetchLogs(ctx context.Context, pod string, since time.Time, lines int) (string, error) {
	var logs string
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		q := fmt.Sprintf("/logs?pod=%s&since=%s&lines=%d",
			url.QueryEscape(pod), url.QueryEscape(since.Format(time.RFC3339)), lines)
		body, err := c.getRaw(ctx, q)
		if err != nil {
			return err
		}
		logs = string(body)
		return nil
	})
	return logs, err
}

func (c *HTTPClusterIntrospection) FetchEvents(ctx context.Context, namespace string, since time.Time) ([]ClusterEvent, error) {
	var events []ClusterEvent
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		var response struct {
			Events []ClusterEvent `json:"events"`
		}
		q := fmt.Sprintf("/events?namespace=%s&since=%s",
			url.QueryEscape(namespace), url.QueryEscape(since.Format(time.RFC3339)))
		if err := c.get(ctx, q, &response); err != nil {
			return err
		}
		events = response.Events
		return nil
	})
	return events, err
}

func (c *HTTPClusterIntrospection) get(ctx context.Context, path string, out any) error {
	body, err := c.getRaw(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.New("cluster.get", errs.UpstreamUnavailable, "decode response", err)
	}
	return nil
}

func (c *HTTPClusterIntrospection) getRaw(ctx context.Context, path string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, errs.New("cluster.get", errs.ValidationFailed, "base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return nil, errs.New("cluster.get", errs.UpstreamUnavailable, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New("cluster.get", errs.UpstreamUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errs.New("cluster.get", errs.UpstreamUnavailable, fmt.Sprintf("server error %s", resp.Status), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.New("cluster.get", errs.ValidationFailed, fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
	return io.ReadAll(resp.Body)
}
