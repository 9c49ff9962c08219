package hashgen

import (
	"strings"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"default when zero", 0, DefaultLength},
		{"default below minimum", MinLength - 1, DefaultLength},
		{"default above maximum", MaxLength + 1, DefaultLength},
		{"minimum", MinLength, MinLength},
		{"maximum", MaxLength, MaxLength},
		{"custom", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := New(tt.length).Hash("https://example.com")
			if len(code) != tt.want {
				t.Errorf("len(Hash()) = %d, want %d", len(code), tt.want)
			}
		})
	}
}

func TestXXGenerator_Hash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := New(7).Hash("https://example.com/a")
		b := New(7).Hash("https://example.com/a")
		if a != b {
			t.Errorf("Hash() not deterministic: %q != %q", a, b)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		gen := New(7)
		seen := make(map[string]string)
		for i := range 1000 {
			url := "https://example.com/" + strings.Repeat("x", i%7) + string(rune('a'+i%26)) + strings.Repeat("y", i/26)
			code := gen.Hash(url)
			if prev, ok := seen[code]; ok && prev != url {
				t.Fatalf("collision between %q and %q: %q", prev, url, code)
			}
			seen[code] = url
		}
	})

	t.Run("salted input yields a different code", func(t *testing.T) {
		gen := New(7)
		if gen.Hash("https://example.com/a") == gen.Hash("https://example.com/a#1") {
			t.Error("salted hash equals unsalted hash")
		}
	})

	t.Run("longer codes extend shorter ones", func(t *testing.T) {
		short := New(8).Hash("https://example.com/a")
		long := New(24).Hash("https://example.com/a")
		if !strings.HasPrefix(long, short) {
			t.Errorf("Hash(24) = %q does not extend Hash(8) = %q", long, short)
		}
	})

	t.Run("only base62 characters", func(t *testing.T) {
		code := New(MaxLength).Hash("https://example.com/?q=ünïcode&x=1")
		for i, c := range code {
			if !strings.ContainsRune(base62Chars, c) {
				t.Errorf("invalid character %q at %d", c, i)
			}
		}
		if !IsValid(code) {
			t.Errorf("IsValid(%q) = false", code)
		}
	})

	t.Run("empty input still yields a code", func(t *testing.T) {
		if got := New(7).Hash(""); len(got) != 7 {
			t.Errorf("Hash(\"\") = %q", got)
		}
	})

	t.Run("concurrent use", func(t *testing.T) {
		gen := New(7)
		want := gen.Hash("https://example.com/concurrent")

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got := gen.Hash("https://example.com/concurrent"); got != want {
					t.Errorf("Hash() = %q, want %q", got, want)
				}
			}()
		}
		wg.Wait()
	})
}

func TestFunc(t *testing.T) {
	gen := Func(func(input string) string { return "fixed" })
	if got := gen.Hash("anything"); got != "fixed" {
		t.Errorf("Func.Hash() = %q", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"abc1234", true},
		{"A", true},
		{"", false},
		{"abc-123", false},
		{"abc_123", false},
		{"abc/123", false},
		{strings.Repeat("a", MaxLength), true},
		{strings.Repeat("a", MaxLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := IsValid(tt.code); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
