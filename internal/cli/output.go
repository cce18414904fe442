package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/service"
)

// Output formats
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// printer renders command results in the selected format
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", formatTable:
		return &printer{w: w, format: formatTable}, nil
	case formatJSON:
		return &printer{w: w, format: formatJSON}, nil
	case formatYAML, "yml":
		return &printer{w: w, format: formatYAML}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// Print renders v. Values without a table layout fall back to YAML.
func (p *printer) Print(v any) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return p.yaml(v)
	}

	headers, rows, ok := tableRows(v)
	if !ok {
		return p.yaml(v)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.w, "No results")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderRow(false).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

// Message prints a plain status line regardless of format
func (p *printer) Message(format string, args ...any) error {
	if p.format != formatTable {
		return p.Print(map[string]string{"message": fmt.Sprintf(format, args...)})
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func (p *printer) yaml(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// tableRows lays out the list types the commands print
func tableRows(v any) ([]string, [][]string, bool) {
	switch items := v.(type) {
	case []domain.Video:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, truncate(it.Title, 60), it.Duration, it.Views, formatDate(it)}
		}
		return []string{"ID", "TITLE", "DURATION", "VIEWS", "PUBLISHED"}, rows, true
	case []domain.Playlist:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, truncate(it.Title, 60), strconv.Itoa(it.VideoCount)}
		}
		return []string{"ID", "TITLE", "VIDEOS"}, rows, true
	case []domain.PlaylistItem:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{strconv.Itoa(it.Position + 1), it.VideoID, truncate(it.Title, 60)}
		}
		return []string{"#", "VIDEO", "TITLE"}, rows, true
	case []service.SearchResult:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{string(it.Kind), it.ID, truncate(it.Title, 60), strconv.Itoa(it.Score)}
		}
		return []string{"KIND", "ID", "TITLE", "SCORE"}, rows, true
	case []domain.Event:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, truncate(it.Title, 40), it.Date, it.Location, it.Category, it.Status}
		}
		return []string{"ID", "TITLE", "DATE", "LOCATION", "CATEGORY", "STATUS"}, rows, true
	case []domain.Article:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, truncate(it.Title, 50), strings.Join(it.Tags, ","), it.Status, strconv.Itoa(it.LikesCount)}
		}
		return []string{"ID", "TITLE", "TAGS", "STATUS", "LIKES"}, rows, true
	case []domain.Opportunity:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, truncate(it.Title, 40), it.Category, it.Commitment, it.Status}
		}
		return []string{"ID", "TITLE", "CATEGORY", "COMMITMENT", "STATUS"}, rows, true
	case []domain.Sponsor:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, it.Name, it.Tier, it.Status, it.WebsiteURL}
		}
		return []string{"ID", "NAME", "TIER", "STATUS", "WEBSITE"}, rows, true
	case []domain.User:
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.ID, it.Email, it.DisplayName, string(it.Role), strconv.FormatBool(it.IsActive)}
		}
		return []string{"ID", "EMAIL", "NAME", "ROLE", "ACTIVE"}, rows, true
	}
	return nil, nil, false
}

func formatDate(v domain.Video) string {
	if v.PublishedAt.IsZero() {
		return ""
	}
	return v.PublishedAt.Format("2006-01-02")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
