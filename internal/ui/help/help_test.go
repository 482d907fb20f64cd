package help

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/parqview/internal/ui/theme"
)

func TestSections_NoDuplicateKeys(t *testing.T) {
	seen := map[string]string{}
	for _, s := range Sections() {
		if s.Title == "Row Detail" {
			// detail keys are modal and may reuse normal-mode keys
			continue
		}
		for _, kb := range s.Keys {
			if prev, ok := seen[kb.Key]; ok {
				t.Errorf("Key %q listed in %s and %s", kb.Key, prev, s.Title)
			}
			seen[kb.Key] = s.Title
		}
	}
}

func TestRender(t *testing.T) {
	out := Render(100, 50, theme.DefaultTheme())
	for _, want := range []string{"parqview", "Load all rows", "Saved views"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected help to contain %q", want)
		}
	}
}
