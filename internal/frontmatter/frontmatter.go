// Package frontmatter splits, parses and re-serializes the metadata block at the
// top of a Markdown document. YAML (`---`) and TOML (`+++`) blocks are supported.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the frontmatter syntax of a document.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Delimiter returns the fence line used by the format.
func (f Format) Delimiter() string {
	if f == FormatTOML {
		return "+++"
	}
	return "---"
}

// Style captures formatting details needed for stable rewriting.
//
// It focuses on newline/trailing newline shape and the block syntax; it does
// not attempt to preserve original key order or comments.
type Style struct {
	Newline            string
	HasTrailingNewline bool
	Format             Format
}

// ErrMissingClosingDelimiter indicates the document started with a frontmatter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates frontmatter from the Markdown body.
//
// If the document does not start with a YAML or TOML delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	for _, format := range []Format{FormatYAML, FormatTOML} {
		fence := format.Delimiter()
		open := []byte(fence + nl)
		if !bytes.HasPrefix(content, open) {
			continue
		}
		style.Format = format

		start := len(open)
		if bytes.HasPrefix(content[start:], open) {
			return []byte{}, content[start+len(open):], true, style, nil
		}

		closeSeq := []byte(nl + fence + nl)
		idx := bytes.Index(content[start:], closeSeq)
		if idx >= 0 {
			end := start + idx + len(nl)
			return content[start:end], content[start+idx+len(closeSeq):], true, style, nil
		}
		// A closing fence on the final line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+fence)) {
			end := len(content) - len(fence)
			return content[start:end], []byte{}, true, style, nil
		}
		style.Format = FormatNone
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}
	return nil, content, false, style, nil
}

// Join reassembles a document from raw frontmatter and body.
//
// If had is false, Join returns body as-is. Otherwise the block is fenced with
// the delimiter of style.Format (YAML when unset).
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	fence := []byte(style.Format.Delimiter() + nl)

	out := make([]byte, 0, 2*len(fence)+len(frontmatter)+len(body))
	out = append(out, fence...)
	out = append(out, frontmatter...)
	out = append(out, fence...)
	out = append(out, body...)
	return out
}

// Parse decodes a raw frontmatter block in the given format into a map.
func Parse(format Format, raw []byte) (map[string]any, error) {
	switch format {
	case FormatYAML, FormatNone:
		return ParseYAML(raw)
	case FormatTOML:
		return ParseTOML(raw)
	default:
		return nil, fmt.Errorf("unsupported frontmatter format %q", format)
	}
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseTOML parses raw TOML frontmatter (without +++ delimiters) into a map.
func ParseTOML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	fields := map[string]any{}
	if err := toml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
