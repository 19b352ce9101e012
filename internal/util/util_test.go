package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBaseHref(t *testing.T) {
	tests := map[string]string{
		"index.md":           "",
		"about.html":         "",
		"posts/first.md":     "../",
		"posts/2024/deep.md": "../../",
	}
	for in, want := range tests {
		assert.Equal(t, want, ComputeBaseHref(in), "ComputeBaseHref(%q)", in)
	}
}

func TestURLPath(t *testing.T) {
	tests := map[string]string{
		"index.html":       "/index.html",
		"posts/first.html": "/posts/first.html",
		"/already.html":    "/already.html",
		"group news.html":  "/group%20news.html",
		"café/menu.html":   "/caf%C3%A9/menu.html",
	}
	for in, want := range tests {
		assert.Equal(t, want, URLPath(in), "URLPath(%q)", in)
	}
}
