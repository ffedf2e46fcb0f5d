// Package ui renders command output and talks to the person at the
// terminal. Results render as styled tables and markdown on terminals,
// plain text when piped, or JSON on request.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is tabular output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Result is what a command shows. Data is the JSON payload; when nil the
// table rows are emitted as objects keyed by header.
type Result struct {
	Title    string
	Table    *Table
	Markdown string
	Notes    []string
	Data     interface{}
}

// Renderer writes results in one format.
type Renderer interface {
	RenderResult(r *Result) error
	RenderError(err error) error
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer. FormatAuto is resolved against output.
func NewRenderer(format Format, output io.Writer, color bool) Renderer {
	if format == FormatAuto {
		format = DetectFormat(output, color)
	}
	switch format {
	case FormatTerminal:
		return &terminalRenderer{out: output}
	case FormatJSON:
		return newJSONRenderer(output)
	default:
		return &textRenderer{out: output}
	}
}

type terminalRenderer struct {
	out io.Writer
}

func (r *terminalRenderer) RenderResult(res *Result) error {
	var b strings.Builder
	if res.Title != "" {
		b.WriteString(TitleStyle.Render(res.Title))
		b.WriteString("\n")
	}
	if res.Table != nil && len(res.Table.Rows) > 0 {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
			Headers(res.Table.Headers...).
			Rows(res.Table.Rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return HeaderStyle
				}
				return CellStyle
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	if res.Markdown != "" {
		b.WriteString(RenderMarkdown(res.Markdown, 0))
	}
	for _, note := range res.Notes {
		b.WriteString(MutedStyle.Render(note))
		b.WriteString("\n")
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *terminalRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.out, ErrorStyle.Render("Error: ")+err.Error())
	return werr
}

func (r *terminalRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.out, msg)
	return err
}

type textRenderer struct {
	out io.Writer
}

func (r *textRenderer) RenderResult(res *Result) error {
	if res.Title != "" {
		if _, err := fmt.Fprintf(r.out, "%s\n\n", res.Title); err != nil {
			return err
		}
	}
	if res.Table != nil && len(res.Table.Rows) > 0 {
		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Table.Headers, "\t")))
		for _, row := range res.Table.Rows {
			_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if res.Markdown != "" {
		if _, err := fmt.Fprintln(r.out, strings.TrimRight(res.Markdown, "\n")); err != nil {
			return err
		}
	}
	for _, note := range res.Notes {
		if _, err := fmt.Fprintln(r.out, note); err != nil {
			return err
		}
	}
	return nil
}

func (r *textRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.out, "Error: %s\n", err)
	return werr
}

func (r *textRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.out, msg)
	return err
}

type jsonRenderer struct {
	encoder *json.Encoder
}

func newJSONRenderer(out io.Writer) *jsonRenderer {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return &jsonRenderer{encoder: encoder}
}

func (r *jsonRenderer) RenderResult(res *Result) error {
	if res.Data != nil {
		return r.encoder.Encode(res.Data)
	}
	rows := []map[string]string{}
	if res.Table != nil {
		for _, row := range res.Table.Rows {
			obj := make(map[string]string, len(row))
			for i, cell := range row {
				if i < len(res.Table.Headers) {
					obj[strings.ToLower(res.Table.Headers[i])] = cell
				}
			}
			rows = append(rows, obj)
		}
	}
	return r.encoder.Encode(rows)
}

func (r *jsonRenderer) RenderError(err error) error {
	return r.encoder.Encode(map[string]string{"error": err.Error()})
}

func (r *jsonRenderer) RenderMessage(msg string) error {
	return r.encoder.Encode(map[string]string{"message": msg})
}

// RenderMarkdown renders markdown for the terminal, returning the input
// unchanged when glamour cannot render it. A zero width keeps glamour's
// default wrapping.
func RenderMarkdown(content string, width int) string {
	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
