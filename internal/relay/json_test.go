package relay

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{json.Number("0"), false},
		{json.Number("200"), true},
		{float64(0), false},
		{float64(1), true},
		{"", false},
		{"success", true},
		{[]any{}, false},
		{[]any{1}, true},
		{map[string]any{}, false},
		{map[string]any{"a": 1}, true},
	}
	for _, tt := range tests {
		if got := truthy(tt.in); got != tt.want {
			t.Errorf("truthy(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{json.Number("12.5"), 12.5, true},
		{float64(3), 3, true},
		{42, 42, true},
		{" 7.25 ", 7.25, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := Float(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Float(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{25.5, 25.5},
		{3.333, 3.33},
		{12.345, 12.35},
		{0.125, 0.12},
		{-7.339999, -7.34},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	v, err := decodeJSON([]byte(`{"b":1,"a":{"msg":"余额不足 <ok>"},"n":123456789012}`))
	if err != nil {
		t.Fatal(err)
	}
	got := PrettyJSON(v)
	if !strings.Contains(got, "余额不足") {
		t.Errorf("non-ASCII text should be kept: %s", got)
	}
	if strings.Index(got, `"a"`) > strings.Index(got, `"b"`) {
		t.Errorf("keys should be sorted: %s", got)
	}
	if !strings.Contains(got, "123456789012") {
		t.Errorf("integers should keep their digits: %s", got)
	}
	if !strings.Contains(got, "\n  \"a\": {\n    \"msg\"") {
		t.Errorf("output should be indented by two spaces: %s", got)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	if _, err := decodeJSON([]byte("<html>")); err == nil {
		t.Fatal("expected error")
	} else if _, ok := err.(*DecodeError); !ok {
		t.Errorf("expected *DecodeError, got %T", err)
	}
}
