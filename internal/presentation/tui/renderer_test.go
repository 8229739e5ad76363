package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMarkdown_PlainWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	md := "## Aria @ 10\n\n- **HP:** 12\n"
	require.NoError(t, WriteMarkdown(&buf, md))
	assert.Equal(t, md, buf.String())
	assert.False(t, IsTerminal(&buf))
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("## Aria @ 10\n\n- **HP:** 12\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Aria @ 10")
	assert.Contains(t, out, "HP:")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Equal(t, len(bannerLines)+2, strings.Count(buf.String(), "\n"))
}
