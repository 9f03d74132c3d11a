package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter writes lint results.
type Formatter interface {
	Format(w io.Writer, result *Result, sectionDir string) error
}

// FormatterFor returns the formatter for "text" or "json".
func FormatterFor(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown lint format %q", format)
	}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format prints issues in file order followed by a summary.
func (f *TextFormatter) Format(w io.Writer, result *Result, sectionDir string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Linting posts in: %s\n", sectionDir)
	b.WriteString(strings.Repeat("━", 60) + "\n")

	for _, issue := range result.Issues {
		fmt.Fprintf(&b, "%-7s %s [%s]\n        %s\n", issue.Severity, issue.FilePath, issue.Rule, issue.Message)
		if issue.Fix != "" {
			fmt.Fprintf(&b, "        fix: %s\n", issue.Fix)
		}
	}
	if len(result.Issues) > 0 {
		b.WriteString(strings.Repeat("━", 60) + "\n")
	}

	fmt.Fprintf(&b, "%d post%s scanned: %d error%s, %d warning%s, %d info\n",
		result.FilesTotal, pluralize(result.FilesTotal),
		result.ErrorCount(), pluralize(result.ErrorCount()),
		result.WarningCount(), pluralize(result.WarningCount()),
		result.InfoCount())

	_, err := io.WriteString(w, b.String())
	return err
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// JSONOutput is the document JSONFormatter writes.
type JSONOutput struct {
	Path         string      `json:"path"`
	FilesTotal   int         `json:"files_total"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue is a single issue in JSON format.
type JSONIssue struct {
	FilePath string `json:"file_path"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Format outputs results in JSON format.
func (f *JSONFormatter) Format(w io.Writer, result *Result, sectionDir string) error {
	output := JSONOutput{
		Path:         sectionDir,
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		InfoCount:    result.InfoCount(),
		Issues:       make([]JSONIssue, 0, len(result.Issues)),
	}
	for _, issue := range result.Issues {
		output.Issues = append(output.Issues, JSONIssue{
			FilePath: issue.FilePath,
			Severity: issue.Severity.String(),
			Rule:     issue.Rule,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
