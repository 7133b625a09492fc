package validator

import (
	"strings"
	"testing"
)

func TestSanitizeFolderName(t *testing.T) {
	valid := map[string]string{
		"docs":        "docs",
		"  reports  ": "reports",
		"2024 Q1":     "2024 Q1",
		"中文目录":        "中文目录",
	}
	for in, want := range valid {
		got, ok := SanitizeFolderName(in)
		if !ok || got != want {
			t.Errorf("SanitizeFolderName(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	invalid := []string{"", "   ", ".", "..", "a/b", `a\b`, "tab\there", strings.Repeat("x", MaxNameLength+1)}
	for _, in := range invalid {
		if _, ok := SanitizeFolderName(in); ok {
			t.Errorf("SanitizeFolderName(%q) should be rejected", in)
		}
	}
}
