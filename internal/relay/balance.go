package relay

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
)

// usageWindow is how far back the usage endpoint is asked to sum.
const usageWindow = 100 * 24 * time.Hour

// BalancePaths overrides the subscription and usage endpoint paths.
type BalancePaths struct {
	Subscription string
	Usage        string
}

func (p BalancePaths) withDefaults() BalancePaths {
	if strings.TrimSpace(p.Subscription) == "" {
		p.Subscription = DefaultSubscriptionPath
	}
	if strings.TrimSpace(p.Usage) == "" {
		p.Usage = DefaultUsagePath
	}
	return p
}

// QueryBalance asks the station for the account balance using the
// OpenAI-compatible subscription/usage pair and the vendor token endpoint.
// Every source is tried once; failures never stop the others and are
// reported only through the result.
func (c *Client) QueryBalance(creds Credentials, paths BalancePaths) BalanceResult {
	base := creds.base()
	paths = paths.withDefaults()
	header := bearerHeader(creds.APIKey)

	res := BalanceResult{RawResponse: map[string]any{}}

	sub := c.fetchObject(SourceSubscription, base+paths.Subscription, header, "", creds.APIKey)
	res.record(sub)

	now := c.clock()
	window := url.Values{}
	window.Set("start_date", now.Add(-usageWindow).Format(time.DateOnly))
	window.Set("end_date", now.Format(time.DateOnly))
	usage := c.fetchObject(SourceUsage, base+paths.Usage, header, window.Encode(), creds.APIKey)
	res.record(usage)

	if f, ok := usdFragment(sub, usage); ok {
		res.merge(f)
	}

	token := c.fetchObject(SourceToken, base+TokenUsagePath, header, "", creds.APIKey)
	res.record(token)
	if f, ok := tokenFragment(token); ok {
		res.merge(f)
	}

	if !res.HasUSD() && !res.HasTokens() {
		res.Error = ErrNoBalance
	}
	return res
}

// usdFragment combines the subscription hard limit with the usage total,
// which the upstream reports in cents.
func usdFragment(sub, usage Attempt) (fragment, bool) {
	if !sub.OK() || !usage.OK() {
		return nil, false
	}
	subBody, _ := sub.Body.(map[string]any)
	usageBody, _ := usage.Body.(map[string]any)

	hard := numberOr(subBody, "hard_limit_usd", 0)
	used := round2(numberOr(usageBody, "total_usage", 0) / 100)
	return fragment{
		"hard_limit_usd": hard,
		"used_usd":       used,
		"remaining_usd":  round2(hard - used),
	}, true
}

// tokenFragment reads the {code, data} envelope of the token endpoint.
func tokenFragment(token Attempt) (fragment, bool) {
	if !token.OK() {
		return nil, false
	}
	body, _ := token.Body.(map[string]any)
	if !truthy(body["code"]) {
		return nil, false
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	return fragment{
		"total_granted":   numberOr(data, "total_granted", 0),
		"total_used":      numberOr(data, "total_used", 0),
		"total_available": numberOr(data, "total_available", 0),
	}, true
}

var errNotObject = errors.New("expected a JSON object")

// fetchObject performs one GET and decodes a JSON object body. The decoded
// body is attached even when it is not an object so callers can record it.
func (c *Client) fetchObject(source, rawURL string, header http.Header, query, secret string) Attempt {
	a := Attempt{Source: source}

	req, err := newGet(rawURL, header, query)
	if err != nil {
		a.Err = err
		return a
	}

	resp, err := c.do(req)
	if err != nil {
		logger.Debug("upstream request failed", "source", source, "url", Redact(req.URL.String(), secret), "error", Redact(err.Error(), secret))
		a.Err = err
		return a
	}
	logger.Debug("upstream response", "source", source, "url", Redact(resp.URL, secret), "status", resp.StatusCode)

	if !resp.ok() {
		a.Err = resp.statusError()
		return a
	}

	body, err := decodeJSON(resp.Body)
	if err != nil {
		a.Err = err
		return a
	}
	a.Body = body
	if _, ok := body.(map[string]any); !ok {
		a.Err = &DecodeError{Err: errNotObject}
	}
	return a
}
