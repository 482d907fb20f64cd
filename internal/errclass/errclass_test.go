package errclass

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Unexpected},
		{"timeout sentinel", fmt.Errorf("count rows: %w", ErrTimeout), Network},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), Network},
		{"cors", errors.New("Blocked by CORS policy"), CrossOrigin},
		{"host", errors.New(`IO Error: Could not resolve hostname "example.invalid"`), Network},
		{"refused", errors.New("dial tcp 127.0.0.1:9: connect: connection refused"), Network},
		{"magic", errors.New("Invalid Input Error: No magic bytes found at end of file 'x.parquet'"), MalformedFile},
		{"corrupt", errors.New("corrupt footer"), MalformedFile},
		{"other", errors.New("Binder Error: column not found"), Unexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// mentions both a CORS block and a network failure: cross-origin wins
	err := errors.New("network request failed: CORS header missing")
	if got := Classify(err); got != CrossOrigin {
		t.Errorf("expected cross-origin to win, got %v", got)
	}

	// network beats malformed-file
	err = errors.New("HTTP error fetching parquet file: connection reset by peer")
	if got := Classify(err); got != Network {
		t.Errorf("expected network to win, got %v", got)
	}
}

func TestDescribe_HTMLEscapesUntrustedParts(t *testing.T) {
	src := `https://example.com/<script>.parquet`
	err := errors.New(`No magic bytes found in "<b>x</b>"`)

	d := Describe(err, src)
	if d.Kind != MalformedFile {
		t.Fatalf("expected malformed file, got %v", d.Kind)
	}

	html := d.HTML()
	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>") {
		t.Errorf("untrusted markup leaked into HTML: %s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("expected escaped source in HTML: %s", html)
	}
	if !strings.Contains(html, Suggestion(MalformedFile)) {
		t.Error("expected static suggestion in HTML")
	}
}

func TestSuggestionsAreDistinct(t *testing.T) {
	seen := map[string]Kind{}
	for _, k := range []Kind{Unexpected, CrossOrigin, Network, MalformedFile} {
		s := Suggestion(k)
		if s == "" {
			t.Errorf("kind %v has no suggestion", k)
		}
		if other, ok := seen[s]; ok {
			t.Errorf("kinds %v and %v share a suggestion", k, other)
		}
		seen[s] = k
	}
}

func TestRetriable(t *testing.T) {
	if !Describe(ErrTimeout, "x").Retriable() {
		t.Error("expected timeout to be retriable")
	}
	if Describe(errors.New("invalid parquet"), "x").Retriable() {
		t.Error("expected malformed file not to be retriable")
	}
}
