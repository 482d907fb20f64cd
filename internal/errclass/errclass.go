// Package errclass sorts load failures into a small taxonomy and attaches a
// static, actionable suggestion to each kind.
package errclass

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rebeliceyang/parqview/internal/escape"
)

// ErrTimeout is returned when an engine call outlives its time budget
var ErrTimeout = errors.New("request timed out")

// Kind is a class of failure
type Kind int

const (
	Unexpected Kind = iota
	CrossOrigin
	Network
	MalformedFile
)

func (k Kind) String() string {
	switch k {
	case CrossOrigin:
		return "cross-origin"
	case Network:
		return "network"
	case MalformedFile:
		return "malformed-file"
	default:
		return "unexpected"
	}
}

// rule maps a predicate over the error to a kind. The lower-cased message
// is computed once and passed alongside.
type rule struct {
	kind  Kind
	match func(err error, msg string) bool
}

func contains(subs ...string) func(error, string) bool {
	return func(_ error, msg string) bool {
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

func is(targets ...error) func(error, string) bool {
	return func(err error, _ string) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// rules are evaluated in order; the first match wins
var rules = []rule{
	{CrossOrigin, contains("cors", "cross-origin", "cross origin", "access-control-allow-origin")},
	{Network, is(ErrTimeout, context.DeadlineExceeded)},
	{Network, contains(
		"network", "failed to fetch", "timed out", "timeout", "could not resolve",
		"no such host", "connection refused", "connection reset", "unreachable",
		"dial tcp", "unable to connect", "http error", "http get error", "http head error",
	)},
	{MalformedFile, contains(
		"magic bytes", "not a parquet", "invalid parquet", "corrupt",
		"invalid footer", "unsupported file",
	)},
}

// Classify returns the kind of err. nil is Unexpected.
func Classify(err error) Kind {
	if err == nil {
		return Unexpected
	}
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.match(err, msg) {
			return r.kind
		}
	}
	return Unexpected
}

var titles = map[Kind]string{
	CrossOrigin:   "Access blocked",
	Network:       "Network error",
	MalformedFile: "Not a valid Parquet file",
	Unexpected:    "Unexpected error",
}

var suggestions = map[Kind]string{
	CrossOrigin:   "The server refused cross-origin access to this file. Download it and open the local copy instead.",
	Network:       "The file could not be fetched. Check the URL and your connection, then press r to retry.",
	MalformedFile: "The content is not valid columnar data. Make sure the file is a complete Parquet file and not an HTML error page or a partial download.",
	Unexpected:    "The query engine reported an error. Try reloading the file; if it keeps failing, run with --log-level debug and check the log.",
}

// Suggestion returns the static advice for a kind. It never contains user input.
func Suggestion(k Kind) string {
	return suggestions[k]
}

// Display is a failure ready for presentation. Message and Source are raw
// and must be escaped by any HTML renderer; HTML does that.
type Display struct {
	Kind       Kind
	Title      string
	Message    string
	Source     string
	Suggestion string
}

// Describe classifies err for the given source
func Describe(err error, source string) Display {
	kind := Classify(err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Display{
		Kind:       kind,
		Title:      titles[kind],
		Message:    msg,
		Source:     source,
		Suggestion: suggestions[kind],
	}
}

// Retriable reports whether trying the same source again may succeed
func (d Display) Retriable() bool {
	return d.Kind == Network || d.Kind == Unexpected
}

// Text renders the display for a terminal
func (d Display) Text() string {
	var b strings.Builder
	if d.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", d.Source)
	}
	b.WriteString(d.Message)
	b.WriteString("\n\n")
	b.WriteString(d.Suggestion)
	return b.String()
}

// HTML renders the display as an HTML fragment. The suggestion is static copy;
// everything else is escaped.
func (d Display) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="error">`)
	fmt.Fprintf(&b, "<h2>%s</h2>", escape.HTML(d.Title))
	if d.Source != "" {
		fmt.Fprintf(&b, `<p class="source">%s</p>`, escape.HTML(d.Source))
	}
	fmt.Fprintf(&b, `<pre class="message">%s</pre>`, escape.HTML(d.Message))
	fmt.Fprintf(&b, `<p class="suggestion">%s</p>`, d.Suggestion)
	b.WriteString("</div>")
	return b.String()
}
