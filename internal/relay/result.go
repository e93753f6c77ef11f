package relay

import (
	"cmp"
	"slices"
)

// Balance sources, also used as raw_response keys.
const (
	SourceSubscription = "subscription"
	SourceUsage        = "usage"
	SourceToken        = "token"
)

// User-visible failure messages.
const (
	ErrNoBalance        = "无法获取余额信息"
	ErrEmptyLogResponse = "API 返回空响应，请检查接口路径是否正确"
	ErrNonJSONPrefix    = "API 返回非 JSON 格式: "
)

// Attempt is the outcome of one upstream call.
type Attempt struct {
	Err    error
	Body   any
	Source string
}

// OK reports whether the call succeeded and decoded.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// BalanceResult is the normalized balance of one account. USD fields are
// either all set or all nil, and likewise for the token fields.
type BalanceResult struct {
	HardLimitUSD   *float64       `json:"hard_limit_usd,omitempty"`
	UsedUSD        *float64       `json:"used_usd,omitempty"`
	RemainingUSD   *float64       `json:"remaining_usd,omitempty"`
	TotalGranted   *float64       `json:"total_granted,omitempty"`
	TotalUsed      *float64       `json:"total_used,omitempty"`
	TotalAvailable *float64       `json:"total_available,omitempty"`
	Error          string         `json:"error,omitempty"`
	RawResponse    map[string]any `json:"raw_response"`
	Attempts       []Attempt      `json:"-"`
}

// HasUSD reports whether the subscription/usage pair succeeded.
func (r *BalanceResult) HasUSD() bool {
	return r.HardLimitUSD != nil && r.UsedUSD != nil && r.RemainingUSD != nil
}

// HasTokens reports whether the vendor token endpoint succeeded.
func (r *BalanceResult) HasTokens() bool {
	return r.TotalGranted != nil && r.TotalUsed != nil && r.TotalAvailable != nil
}

// Failed reports whether no balance field could be obtained.
func (r *BalanceResult) Failed() bool {
	return r.Error != ""
}

// Remaining returns the most meaningful remaining amount: USD when known,
// otherwise the token endpoint's available total.
func (r *BalanceResult) Remaining() (float64, bool) {
	switch {
	case r.HasUSD():
		return *r.RemainingUSD, true
	case r.HasTokens():
		return *r.TotalAvailable, true
	default:
		return 0, false
	}
}

// FailedAttempts returns the attempts that did not succeed.
func (r *BalanceResult) FailedAttempts() []Attempt {
	var failed []Attempt
	for _, a := range r.Attempts {
		if !a.OK() {
			failed = append(failed, a)
		}
	}
	return failed
}

// fragment holds the fields one source contributed.
type fragment map[string]float64

// merge adds the fields of f that are not already set.
func (r *BalanceResult) merge(f fragment) {
	for name, v := range f {
		slot := r.field(name)
		if slot == nil || *slot != nil {
			continue
		}
		val := v
		*slot = &val
	}
}

func (r *BalanceResult) field(name string) **float64 {
	switch name {
	case "hard_limit_usd":
		return &r.HardLimitUSD
	case "used_usd":
		return &r.UsedUSD
	case "remaining_usd":
		return &r.RemainingUSD
	case "total_granted":
		return &r.TotalGranted
	case "total_used":
		return &r.TotalUsed
	case "total_available":
		return &r.TotalAvailable
	default:
		return nil
	}
}

// record stores a's decoded body under its source.
func (r *BalanceResult) record(a Attempt) {
	r.Attempts = append(r.Attempts, a)
	if a.Body == nil {
		return
	}
	if r.RawResponse == nil {
		r.RawResponse = map[string]any{}
	}
	r.RawResponse[a.Source] = a.Body
}

// LogEntry is one call-log record, passed through as the upstream sent it.
type LogEntry = map[string]any

// CreatedAt returns the entry's created_at as a number, or 0.
func CreatedAt(e LogEntry) float64 {
	f, _ := Float(e["created_at"])
	return f
}

// LogResult is one fetched page of call logs. On failure only Error is set.
type LogResult struct {
	RawResponse any
	Error       string
	Items       []LogEntry
	Total       int
}

// Failed reports whether the fetch failed.
func (r *LogResult) Failed() bool {
	return r.Error != ""
}

// MarshalJSON emits {"error"} on failure and {"total","items","raw_response"}
// otherwise.
func (r LogResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return codec.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	items := r.Items
	if items == nil {
		items = []LogEntry{}
	}
	return codec.Marshal(struct {
		Total       int        `json:"total"`
		Items       []LogEntry `json:"items"`
		RawResponse any        `json:"raw_response"`
	}{r.Total, items, r.RawResponse})
}

func logFailure(msg string) LogResult {
	return LogResult{Error: msg}
}

// sortNewestFirst orders entries by created_at descending, keeping the
// upstream order for ties.
func sortNewestFirst(items []LogEntry) {
	slices.SortStableFunc(items, func(a, b LogEntry) int {
		return cmp.Compare(CreatedAt(b), CreatedAt(a))
	})
}
