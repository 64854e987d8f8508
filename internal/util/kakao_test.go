package util

import (
	"strings"
	"testing"
)

func TestApplyKakaoSeeMorePadding(t *testing.T) {
	got := ApplyKakaoSeeMorePadding("body", " head ")
	if !strings.HasPrefix(got, "head"+KakaoZeroWidthSpace) || !strings.HasSuffix(got, "\nbody") {
		t.Fatalf("unexpected layout %q", got[:20])
	}
	if n := strings.Count(got, KakaoZeroWidthSpace); n != KakaoSeeMorePadding {
		t.Fatalf("padding = %d", n)
	}
	if ApplyKakaoSeeMorePadding("  ", "head") != "  " {
		t.Fatalf("blank text must pass through")
	}
}

func TestStripLeadingHeader(t *testing.T) {
	cases := map[string]string{
		"Top\n\n1. a": "1. a",
		"Top\r\n1. a": "1. a",
		"Top1. a":     "1. a",
		"Other\n1. a": "Other\n1. a",
	}
	for in, want := range cases {
		if got := StripLeadingHeader(in, "Top"); got != want {
			t.Errorf("StripLeadingHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplySeeMoreWithHeader(t *testing.T) {
	got := ApplySeeMoreWithHeader("Board\n1. a\n2. b", "Board", "", " (see more)")
	if !strings.HasPrefix(got, "Board (see more)") || strings.Count(got, "Board") != 1 {
		t.Fatalf("header not moved: %q", got[:30])
	}
	got = ApplySeeMoreWithHeader("1. a", "", "Fallback", "")
	if !strings.HasPrefix(got, "Fallback") {
		t.Fatalf("fallback not used")
	}
}
