package relay

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
)

// Log query defaults.
const (
	DefaultPageSize = 50
	DefaultOrder    = "desc"

	previewRunes = 200
)

// LogQuery selects one page of call logs.
type LogQuery struct {
	APIKey     string
	BaseURL    string
	Order      string
	CustomPath string
	ProxyURL   string
	PageSize   int
	Page       int
}

// withDefaults fills zero values: page size 50, page 1, order "desc" and
// the default logs path.
func (q LogQuery) withDefaults() LogQuery {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Order == "" {
		q.Order = DefaultOrder
	}
	q.CustomPath = strings.TrimSpace(q.CustomPath)
	if q.CustomPath == "" {
		q.CustomPath = DefaultLogsPath
	}
	q.BaseURL = strings.TrimRight(q.BaseURL, "/")
	return q
}

// Endpoint is the logs URL without any query.
func (q LogQuery) Endpoint() string {
	q = q.withDefaults()
	return q.BaseURL + q.CustomPath
}

// TargetURL is the full logs URL with its query inlined verbatim, as handed
// to a forwarding proxy.
func (q LogQuery) TargetURL() string {
	q = q.withDefaults()
	return fmt.Sprintf("%s?key=%s&p=%d&per_page=%d&order=%s",
		q.Endpoint(), q.APIKey, q.Page, q.PageSize, q.Order)
}

// params encodes the query parameters in their conventional order.
func (q LogQuery) params() string {
	q = q.withDefaults()
	pairs := [][2]string{
		{"key", q.APIKey},
		{"p", strconv.Itoa(q.Page)},
		{"per_page", strconv.Itoa(q.PageSize)},
		{"order", q.Order},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
	}
	return strings.Join(parts, "&")
}

// Dispatcher builds the HTTP request for a log query.
type Dispatcher interface {
	Request(q LogQuery) (*http.Request, error)
}

// Direct sends the query straight to the station.
type Direct struct{}

// Request implements Dispatcher.
func (Direct) Request(q LogQuery) (*http.Request, error) {
	return newGet(q.Endpoint(), nil, q.params())
}

// Proxied sends the query through a forwarding proxy that takes the whole
// target URL in its url parameter.
type Proxied struct {
	ProxyURL string
}

// Request implements Dispatcher.
func (p Proxied) Request(q LogQuery) (*http.Request, error) {
	proxy := strings.TrimRight(strings.TrimSpace(p.ProxyURL), "/")
	return newGet(proxy+"?url="+quoteAll(q.TargetURL()), nil, "")
}

// SelectDispatcher picks Direct for a blank proxy URL and Proxied otherwise.
func SelectDispatcher(proxyURL string) Dispatcher {
	if strings.TrimSpace(proxyURL) == "" {
		return Direct{}
	}
	return Proxied{ProxyURL: proxyURL}
}

// quoteAll percent-encodes every reserved character, including "/", and
// spaces as %20.
func quoteAll(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// QueryLogs fetches one page of call logs. Items are always ordered newest
// first by created_at, whatever order was requested. Failures are reported
// through the result's Error.
func (c *Client) QueryLogs(q LogQuery) LogResult {
	q = q.withDefaults()

	req, err := SelectDispatcher(q.ProxyURL).Request(q)
	if err != nil {
		return logFailure(err.Error())
	}

	resp, err := c.do(req)
	if err != nil {
		logger.Debug("upstream request failed", "source", "logs", "url", Redact(req.URL.String(), q.APIKey), "error", Redact(err.Error(), q.APIKey))
		return logFailure(err.Error())
	}
	logger.Debug("upstream response", "source", "logs", "url", Redact(resp.URL, q.APIKey), "status", resp.StatusCode)

	if !resp.ok() {
		return logFailure(resp.statusError().Error())
	}

	if strings.TrimSpace(string(resp.Body)) == "" {
		return logFailure(ErrEmptyLogResponse)
	}

	body, err := decodeJSON(resp.Body)
	if err != nil {
		return logFailure(ErrNonJSONPrefix + preview(resp.Body))
	}

	items := extractItems(body)
	sortNewestFirst(items)
	return LogResult{
		Total:       len(items),
		Items:       items,
		RawResponse: body,
	}
}

// extractItems returns the object elements of the body's data array.
func extractItems(body any) []LogEntry {
	obj, ok := body.(map[string]any)
	if !ok {
		return []LogEntry{}
	}
	data, ok := obj["data"].([]any)
	if !ok {
		return []LogEntry{}
	}
	items := make([]LogEntry, 0, len(data))
	for _, el := range data {
		if entry, ok := el.(map[string]any); ok {
			items = append(items, entry)
		}
	}
	return items
}

func preview(body []byte) string {
	r := []rune(string(body))
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r)
}
