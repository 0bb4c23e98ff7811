package utils

import (
	"regexp"
	"testing"
)

func TestGenerateKickCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^BASEDARE-[A-Z0-9]{6}$`)
	for i := 0; i < 100; i++ {
		code, err := GenerateKickCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match the required format", code)
		}
	}
}

func TestGenerateKickCodeCoversAlphabet(t *testing.T) {
	seen := map[byte]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateKickCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := len("BASEDARE-"); j < len(code); j++ {
			seen[code[j]] = true
		}
	}
	for _, ch := range []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789") {
		if !seen[ch] {
			t.Fatalf("character %q never drawn across 1200 samples", ch)
		}
	}
}

func TestShortIDFromTitle(t *testing.T) {
	id := ShortID("Eat a Ghost Pepper on Stream!")
	if !regexp.MustCompile(`^eat-a-ghost-pepper-on-stream-[0-9a-f]{6}$`).MatchString(id) {
		t.Fatalf("unexpected short id %q", id)
	}

	a, b := ShortID("same title"), ShortID("same title")
	if a == b {
		t.Fatal("short ids for identical titles must not collide")
	}
}

func TestNormalizeTag(t *testing.T) {
	cases := []struct{ in, want string }{
		{"@StreamerName", "streamername"},
		{"streamername", "streamername"},
		{"  @Stream_Er99 ", "stream_er99"},
		{"@Émile", "emile"},
	}
	for _, tc := range cases {
		if got := NormalizeTag(tc.in); got != tc.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if NormalizeTag("@StreamerÑame") != NormalizeTag("streamername") {
		t.Error("accented and plain spellings must collide")
	}
}

func TestHaversineKM(t *testing.T) {
	// Berlin -> Hamburg is roughly 255km
	d := HaversineKM(52.52, 13.405, 53.5511, 9.9937)
	if d < 250 || d > 260 {
		t.Fatalf("expected ~255km, got %.1f", d)
	}
	if HaversineKM(10, 10, 10, 10) != 0 {
		t.Fatal("zero distance expected for identical points")
	}
}
