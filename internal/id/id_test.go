package id

import (
	"regexp"
	"sync"
	"testing"
)

// --- Short Tests ---

func TestShort_Length(t *testing.T) {
	id := Short()
	if len(id) != 16 {
		t.Errorf("Short() length = %d, want 16", len(id))
	}
}

func TestShort_HexOnly(t *testing.T) {
	hexRegex := regexp.MustCompile(`^[0-9a-f]{16}$`)
	for i := 0; i < 100; i++ {
		id := Short()
		if !hexRegex.MatchString(id) {
			t.Errorf("Short() = %q, not valid hex", id)
		}
	}
}

// --- Session Tests ---

func TestSession_Grammar(t *testing.T) {
	sessionRegex := regexp.MustCompile(`^session_[0-9a-f]{16}$`)
	for i := 0; i < 100; i++ {
		id := Session()
		if !sessionRegex.MatchString(id) {
			t.Errorf("Session() = %q, does not match session id grammar", id)
		}
	}
}

func TestSession_Uniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := Session()
		if seen[id] {
			t.Fatalf("Session() generated duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestSession_Concurrent(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 100

	results := make(chan string, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				results <- Session()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, goroutines*perGoroutine)
	for id := range results {
		if seen[id] {
			t.Fatalf("Session() concurrent duplicate: %s", id)
		}
		seen[id] = true
	}
}

// --- IsSessionID Tests ---

func TestIsSessionID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"generated", Session(), true},
		{"all zeros", "session_0000000000000000", true},
		{"all f", "session_ffffffffffffffff", true},
		{"empty", "", false},
		{"prefix only", "session_", false},
		{"too short", "session_abc123", false},
		{"too long", "session_0123456789abcdef0", false},
		{"uppercase hex", "session_0123456789ABCDEF", false},
		{"non-hex suffix", "session_0123456789abcdeg", false},
		{"wrong prefix", "sess_0123456789abcdef0123", false},
		{"bare hex", "0123456789abcdef", false},
		{"embedded space", "session_0123456789abcde ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSessionID(tt.input); got != tt.want {
				t.Errorf("IsSessionID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// --- Benchmarks ---

func BenchmarkSession(b *testing.B) {
	for b.Loop() {
		Session()
	}
}

func BenchmarkIsSessionID(b *testing.B) {
	id := Session()
	for b.Loop() {
		IsSessionID(id)
	}
}
