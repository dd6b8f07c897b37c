package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes))
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{90, "1m 30s"},
		{3600, "1h 0m"},
		{5400, "1h 30m"},
		{36000, "10h 0m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.seconds))
	}
}

func TestPrintTableAlignment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printTable(&buf, []string{"FILE", "STATUS"}, [][]string{
		{"Zelda.srm", "synced"},
		{"a.sav", "upload"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "FILE"))

	// The status column starts at the same offset on every line.
	idx := strings.Index(lines[1], "synced")
	assert.Equal(t, idx, strings.Index(lines[2], "upload"))
}

func TestVisibleLenIgnoresColorCodes(t *testing.T) {
	t.Parallel()

	plain := "conflict"
	colored := colorRed + plain + colorReset

	assert.Equal(t, len(plain), visibleLen(colored))
	assert.Equal(t, len(plain), visibleLen(plain))
}

func TestParseRomID(t *testing.T) {
	t.Parallel()

	id, err := parseRomID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "abc", "-1", "0", "1.5"} {
		_, err := parseRomID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
