package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParseFile_Markdown(t *testing.T) {
	md := "# Heading\n\nFirst sentence. Second sentence.\n\n- item one\n- item two\n"
	path := writeFile(t, t.TempDir(), "note.md", []byte(md))

	text, err := ParseFile(path)
	require.NoError(t, err)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "First sentence. Second sentence.")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "- item")
}

func TestParseFile_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.txt", []byte("plain text content"))

	text, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plain text content", text)
}

func TestParseFile_GBKFallback(t *testing.T) {
	encoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte("你好，世界。"))
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "gbk.md", encoded)

	text, err := ParseFile(path)
	require.NoError(t, err)
	assert.Contains(t, text, "你好，世界。")
}

func TestParseFile_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "image.png", []byte{0x89, 0x50})

	_, err := ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestParseFile_MissingFile(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}

func TestMarkdownToText_StripsFormatting(t *testing.T) {
	md := "Some **bold** and *italic* and a [link](https://example.com).\n"
	text := MarkdownToText(md)

	assert.Contains(t, text, "Some bold and italic and a link.")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "https://example.com")
}

func TestMarkdownToText_KeepsCodeBlockText(t *testing.T) {
	md := "Intro.\n\n```\nfmt.Println(\"hi\")\n```\n\nOutro.\n"
	text := MarkdownToText(md)

	assert.Contains(t, text, "Intro.")
	assert.Contains(t, text, `fmt.Println("hi")`)
	assert.Contains(t, text, "Outro.")
	assert.NotContains(t, text, "```")
}

func TestMarkdownToText_SeparatesBlocks(t *testing.T) {
	md := "# Title\n\npara one\n\npara two\n"
	text := MarkdownToText(md)

	assert.Contains(t, text, "Title\n\n")
	assert.Contains(t, text, "para one\n\n")
}

func TestMarkdownToText_Empty(t *testing.T) {
	assert.Empty(t, MarkdownToText(""))
	assert.Empty(t, MarkdownToText("   \n\n  "))
}
