package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/pilot/pkg/api"
	"github.com/kode4food/pilot/pkg/log"
)

// HTTPTask calls an HTTP endpoint and returns the response body, or the
// value found at a gjson path within it
type HTTPTask struct {
	client  *http.Client
	url     *template.Template
	body    *template.Template
	headers map[string]*template.Template
	id      api.TaskID
	method  string
	result  string
	expect  []int
	timeout time.Duration
}

const (
	userAgent       = "Pilot/1.0"
	maxResponseSize = 4 << 20
)

var _ Task = (*HTTPTask)(nil)

// NewHTTPTask builds an HTTP task from its definition
func NewHTTPTask(
	id api.TaskID, def *Definition, client *http.Client, timeout time.Duration,
) (*HTTPTask, error) {
	url, err := parseTemplate(string(id)+".url", def.URL)
	if err != nil {
		return nil, err
	}

	var body *template.Template
	if def.Body != "" {
		if body, err = parseTemplate(string(id)+".body", def.Body); err != nil {
			return nil, err
		}
	}

	headers := make(map[string]*template.Template, len(def.Headers))
	for name, value := range def.Headers {
		tmpl, err := parseTemplate(string(id)+".headers."+name, value)
		if err != nil {
			return nil, err
		}
		headers[name] = tmpl
	}

	method := strings.ToUpper(def.Method)
	if method == "" {
		method = http.MethodGet
	}

	return &HTTPTask{
		client:  client,
		url:     url,
		body:    body,
		headers: headers,
		id:      id,
		method:  method,
		result:  def.Result,
		expect:  def.ExpectStatus,
		timeout: timeout,
	}, nil
}

// Invoke renders the request from the inputs and performs it
func (t *HTTPTask) Invoke(ctx context.Context, in api.Inputs) (string, error) {
	req, err := t.newRequest(ctx, in)
	if err != nil {
		return "", err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}

	if !t.statusOK(resp.StatusCode) {
		slog.Debug("HTTP task returned unexpected status",
			log.Task(t.id),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(data)))
		return "", fmt.Errorf("%w: HTTP %d", ErrHTTPStatus, resp.StatusCode)
	}

	if t.result == "" {
		return strings.TrimSpace(string(data)), nil
	}

	res := gjson.GetBytes(data, t.result)
	if !res.Exists() {
		return "", fmt.Errorf("%w: %s", ErrResultMissing, t.result)
	}
	return res.String(), nil
}

func (t *HTTPTask) newRequest(
	ctx context.Context, in api.Inputs,
) (*http.Request, error) {
	url, err := render(t.url, in)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if t.body != nil {
		b, err := render(t.body, in)
		if err != nil {
			return nil, err
		}
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, t.method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, tmpl := range t.headers {
		value, err := render(tmpl, in)
		if err != nil {
			return nil, err
		}
		req.Header.Set(name, value)
	}
	return req, nil
}

func (t *HTTPTask) statusOK(code int) bool {
	if len(t.expect) == 0 {
		return code >= 200 && code < 300
	}
	return slices.Contains(t.expect, code)
}
