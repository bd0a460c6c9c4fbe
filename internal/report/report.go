// Package report renders a run summary for operators. Reports never carry
// passwords; they are built from outcomes only.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/lumprov/internal/hostfs"
	"github.com/hnrobert/lumprov/internal/reconcile"
)

const (
	FileMode   os.FileMode = 0600
	timeLayout             = "2006-01-02 15:04:05"
)

type Counters struct {
	Records int `yaml:"records"`
	Created int `yaml:"created"`
	Updated int `yaml:"updated"`
	Skipped int `yaml:"skipped"`
	Failed  int `yaml:"failed"`
}

type Entry struct {
	Line     int      `yaml:"line"`
	Username string   `yaml:"username,omitempty"`
	Groups   []string `yaml:"groups,omitempty"`
	Outcome  string   `yaml:"outcome"`
	Reason   string   `yaml:"reason,omitempty"`
}

type Summary struct {
	RunID      string
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    []Entry
	Counters
}

// Add records one outcome and updates the counters.
func (s *Summary) Add(o reconcile.Outcome) {
	s.Records++
	switch o.Kind {
	case reconcile.Created:
		s.Created++
	case reconcile.Updated:
		s.Updated++
	case reconcile.Skipped:
		s.Skipped++
	case reconcile.Failed:
		s.Failed++
	}
	s.Entries = append(s.Entries, Entry{
		Line:     o.Line,
		Username: o.Username,
		Groups:   o.Groups,
		Outcome:  o.Kind.String(),
		Reason:   o.Reason,
	})
}

// Line is the one-line completion message written to the audit log.
func (s *Summary) Line() string {
	return fmt.Sprintf("run %s complete: %d records, %d created, %d updated, %d skipped, %d failed",
		s.RunID, s.Records, s.Created, s.Updated, s.Skipped, s.Failed)
}

func (s *Summary) Markdown() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Provisioning run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Input: `%s`\n", s.Input)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format(timeLayout))
	fmt.Fprintf(&b, "- Finished: %s\n", s.FinishedAt.Format(timeLayout))
	fmt.Fprintf(&b, "- Records: %d (created %d, updated %d, skipped %d, failed %d)\n",
		s.Records, s.Created, s.Updated, s.Skipped, s.Failed)
	if len(s.Entries) == 0 {
		return b.Bytes()
	}
	b.WriteString("\n| Line | User | Groups | Outcome | Reason |\n")
	b.WriteString("|---:|---|---|---|---|\n")
	for _, e := range s.Entries {
		groups := "-"
		if len(e.Groups) > 0 {
			groups = strings.Join(e.Groups, ", ")
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			e.Line, cell(e.Username), cell(groups), e.Outcome, cell(e.Reason))
	}
	return b.Bytes()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

func (s *Summary) HTML() ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(s.Markdown(), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Provisioning run %s</title>\n", s.RunID)
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

type yamlDoc struct {
	RunID      string   `yaml:"run_id"`
	Input      string   `yaml:"input"`
	StartedAt  string   `yaml:"started_at"`
	FinishedAt string   `yaml:"finished_at"`
	Counters   Counters `yaml:"counters"`
	Entries    []Entry  `yaml:"entries"`
}

func (s *Summary) YAML() ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	err := enc.Encode(yamlDoc{
		RunID:      s.RunID,
		Input:      s.Input,
		StartedAt:  s.StartedAt.Format(timeLayout),
		FinishedAt: s.FinishedAt.Format(timeLayout),
		Counters:   s.Counters,
		Entries:    s.Entries,
	})
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Supported reports whether Write knows the format of path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".html", ".htm", ".yaml", ".yml":
		return true
	}
	return false
}

// Write renders s in the format named by the extension of path and stores
// it with FileMode.
func Write(path string, s *Summary) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		data = s.Markdown()
	case ".html", ".htm":
		data, err = s.HTML()
	case ".yaml", ".yml":
		data, err = s.YAML()
	default:
		return fmt.Errorf("report %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(path, data, FileMode)
}
