package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/resilience"
)

// HTTPMetricsSource queries a Prometheus-compatible metrics backend over
// HTTP/JSON, generalising the teacher's mirador-core client's
// postJSON/resolvePath pattern onto the instant/range/alerts contract
// from spec.md section 6.
type HTTPMetricsSource struct {
	baseURL    string
	instantPath string
	rangePath   string
	alertsPath  string
	httpClient *http.Client
	exec       *resilience.Executor
}

// NewHTTPMetricsSource constructs a client targeting the configured
// metrics source instance.
func NewHTTPMetricsSource(baseURL, instantPath, rangePath, alertsPath string, timeout time.Duration) *HTTPMetricsSource {
	return &HTTPMetricsSource{
		baseURL:     strings.TrimRight(baseURL, "/"),
		instantPath: instantPath,
		rangePath:   rangePath,
		alertsPath:  alertsPath,
		httpClient:  &http.Client{Timeout: timeout},
		exec:        resilience.NewExecutor("metrics-source"),
	}
}

func (c *HTTPMetricsSource) QueryInstant(ctx context.Context, expr string, at time.Time) (MetricPoint, error) {
	if c.baseURL == "" {
		return MetricPoint{}, errs.New("metrics.QueryInstant", errs.ValidationFailed, "base URL not configured", nil)
	}

	var result MetricPoint
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		var response struct {
			Value     float64   `json:"value"`
			Timestamp time.Time `json:"timestamp"`
		}
		if err := c.postJSON(ctx, c.resolvePath(c.instantPath), map[string]any{
			"expr": expr,
			"at":   at.Format(time.RFC3339),
		}, &response); err != nil {
			return err
		}
		result = MetricPoint{Timestamp: response.Timestamp, Value: response.Value}
		return nil
	})
	return result, err
}

func (c *HTTPMetricsSource) QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]MetricPoint, error) {
	if c.baseURL == "" {
		return nil, errs.New("metrics.QueryRange", errs.ValidationFailed, "base URL not configured", nil)
	}

	var points []MetricPoint
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		var response struct {
			Series []struct {
				Timestamp time.Time `json:"timestamp"`
				Value     float64   `json:"value"`
			} `json:"series"`
		}
		if err := c.postJSON(ctx, c.resolvePath(c.rangePath), map[string]any{
			"expr":  expr,
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
			"step":  step.String(),
		}, &response); err != nil {
			return err
		}
		points = make([]MetricPoint, 0, len(response.Series))
		for _, s := range response.Series {
			points = append(points, MetricPoint{Timestamp: s.Timestamp, Value: s.Value})
		}
		return nil
	})
	return points, err
}

func (c *HTTPMetricsSource) ListActiveAlerts(ctx context.Context) ([]RawAlert, error) {
	if c.baseURL == "" {
		return nil, errs.New("metrics.ListActiveAlerts", errs.ValidationFailed, "base URL not configured", nil)
	}

	var alerts []RawAlert
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		var response struct {
			Alerts []struct {
				Provider    string            `json:"provider"`
				Fingerprint string            `json:"fingerprint"`
				Service     string            `json:"service"`
				Severity    string            `json:"severity"`
				Description string            `json:"description"`
				Labels      map[string]string `json:"labels"`
				Annotations map[string]string `json:"annotations"`
				Status      string            `json:"status"`
				StartsAt    time.Time         `json:"startsAt"`
				EndsAt      time.Time         `json:"endsAt"`
			} `json:"alerts"`
		}
		if err := c.postJSON(ctx, c.resolvePath(c.alertsPath), map[string]any{}, &response); err != nil {
			return err
		}
		alerts = make([]RawAlert, 0, len(response.Alerts))
		for _, a := range response.Alerts {
			alerts = append(alerts, RawAlert{
				Provider:    a.Provider,
				Fingerprint: a.Fingerprint,
				Service:     a.Service,
				Severity:    a.Severity,
				Description: a.Description,
				Labels:      a.Labels,
				Annotations: a.Annotations,
				Status:      a.Status,
				StartsAt:    a.StartsAt,
				EndsAt:      a.EndsAt,
			})
		}
		return nil
	})
	return alerts, err
}

func (c *HTTPMetricsSource) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *HTTPMetricsSource) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	if endpoint == "" {
		return errs.New("metrics.postJSON", errs.ValidationFailed, "empty endpoint", nil)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.New("metrics.postJSON", errs.UpstreamUnavailable, "marshal payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.New("metrics.postJSON", errs.UpstreamUnavailable, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.New("metrics.postJSON", errs.UpstreamUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errs.New("metrics.postJSON", errs.UpstreamUnavailable, fmt.Sprintf("server error %s", resp.Status), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return errs.New("metrics.postJSON", errs.ValidationFailed, fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.New("metrics.postJSON", errs.UpstreamUnavailable, "decode response", err)
	}
	return nil
}
