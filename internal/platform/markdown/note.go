package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---\n"

// Note is a markdown document with an optional YAML frontmatter block.
type Note struct {
	Meta map[string]any
	Body string
}

// Parse splits content into frontmatter and body. Content without a
// leading fence is all body.
func Parse(content string) (Note, error) {
	if !strings.HasPrefix(content, fence) {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := strings.TrimPrefix(content, fence)
	end := strings.Index(rest, "\n"+fence)
	if end < 0 {
		return Note{}, fmt.Errorf("frontmatter is not closed")
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return Note{}, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return Note{Meta: meta, Body: rest[end+1+len(fence):]}, nil
}

func (n Note) Render() (string, error) {
	var buf bytes.Buffer
	if len(n.Meta) > 0 {
		raw, err := yaml.Marshal(n.Meta)
		if err != nil {
			return "", fmt.Errorf("marshal frontmatter: %w", err)
		}
		buf.WriteString(fence)
		buf.Write(raw)
		buf.WriteString(fence)
		if !strings.HasPrefix(n.Body, "\n") {
			buf.WriteByte('\n')
		}
	}
	buf.WriteString(n.Body)
	return buf.String(), nil
}

// UpsertBlock replaces the generated block called name in body, or
// appends it when body has none. Text outside the markers is preserved.
func UpsertBlock(body, name, generated string) string {
	start := "<!-- studyhub:" + name + ":start -->"
	end := "<!-- studyhub:" + name + ":end -->"
	block := start + "\n" + strings.TrimRight(generated, "\n") + "\n" + end

	if i := strings.Index(body, start); i >= 0 {
		if j := strings.Index(body[i:], end); j >= 0 {
			return body[:i] + block + body[i+j+len(end):]
		}
	}
	switch {
	case strings.TrimSpace(body) == "":
		return block + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + block + "\n"
	default:
		return body + "\n\n" + block + "\n"
	}
}
