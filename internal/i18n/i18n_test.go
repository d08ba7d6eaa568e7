package i18n

import (
	"errors"
	"testing"
)

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "zh_CN", want: "zh_CN"},
		{in: "en-us", want: "en_US"},
		{in: "EN_us", want: "en_US"},
		{in: "fr_FR", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Select(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownLanguage) {
				t.Fatalf("Select(%q): expected unknown language, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("Select(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	if got := Get("ok", "zh_CN"); got != "好的" {
		t.Fatalf("unexpected zh_CN translation: %q", got)
	}
	if got := Get("ok", "en_US"); got != "ok" {
		t.Fatalf("unexpected en_US translation: %q", got)
	}
	if got := Get("ok", "xx"); got != "好的" {
		t.Fatalf("unknown language should use default, got %q", got)
	}
	if got := Get("missing key", "en_US"); got != "missing key" {
		t.Fatalf("missing key should fall back to itself, got %q", got)
	}
	if GetLanguageName("en-US") != "English" {
		t.Fatalf("unexpected language name")
	}
}
