package ui

import (
	"strings"
	"testing"
)

func TestRenderHelpersKeepContent(t *testing.T) {
	// Styling may be stripped entirely outside a terminal; the text
	// itself must always survive.
	for name, fn := range map[string]func(string) string{
		"accent": RenderAccent,
		"pass":   RenderPass,
		"warn":   RenderWarn,
		"error":  RenderError,
		"dim":    RenderDim,
	} {
		if got := fn("hello"); !strings.Contains(got, "hello") {
			t.Errorf("%s: rendered %q, want it to contain %q", name, got, "hello")
		}
	}
}
