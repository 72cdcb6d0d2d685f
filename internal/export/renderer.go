package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Format names an export encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatSVG      Format = "svg"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatSVG}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatSVG:
		return ".svg"
	}
	return ".md"
}

const (
	versionSentinel = "<!-- kpimarks-bundle-version: 1 -->"
	dataPrefix      = "<!-- kpimarks-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Bundle to bytes.
type Renderer interface {
	Render(b *Bundle) ([]byte, error)
}

// RendererFor returns the renderer for format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatSVG:
		return NewSVGRenderer(), nil
	}
	return nil, fmt.Errorf("unknown export format %q (want markdown, json or svg)", format)
}

// JSONRenderer renders a Bundle as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(b *Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// embedPayload returns the two comment lines that let a rendered document be
// parsed back into the Bundle it came from.
func embedPayload(b *Bundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	return versionSentinel + "\n" + dataPrefix + base64.StdEncoding.EncodeToString(data) + dataSuffix + "\n", nil
}

// MarkdownRenderer renders a Bundle as a readable report with an embedded
// base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(b *Bundle) ([]byte, error) {
	payload, err := embedPayload(b)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(payload)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "# %s - annotations - %s\n\n", b.Title(), b.Chart.ExportedAt.Format("2006-01-02 15:04 MST"))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Series: %s\n", b.Chart.SeriesPath)
	if b.Chart.StartDate != nil && b.Chart.EndDate != nil {
		fmt.Fprintf(&sb, "- Range: %s to %s (%d samples)\n", b.Chart.StartDate, b.Chart.EndDate, len(b.Series))
	} else {
		sb.WriteString("- Range: _empty series_\n")
	}
	if values, ok := b.ValuesLine(); ok {
		fmt.Fprintf(&sb, "- Values: %s\n", values)
	}
	fmt.Fprintf(&sb, "- Display: %s\n", b.Chart.Mode)
	if b.Chart.Author != "" {
		fmt.Fprintf(&sb, "- Author: %s\n", b.Chart.Author)
	}
	sb.WriteString("\n")

	sb.WriteString("## Events & Annotations\n\n")
	if len(b.Annotations) == 0 {
		sb.WriteString("_No events or annotations added._\n\n")
	}
	for _, a := range b.Annotations {
		fmt.Fprintf(&sb, "### %s\n\n", a.Name)
		if a.IsPoint() {
			fmt.Fprintf(&sb, "- Date: %s\n", a.StartDate)
		} else {
			fmt.Fprintf(&sb, "- Dates: %s to %s\n", a.StartDate, a.EndDate)
		}
		if a.Owner != "" {
			fmt.Fprintf(&sb, "- Owner: %s\n", a.Owner)
		}
		if a.SourceEventID != "" {
			fmt.Fprintf(&sb, "- Pinned from: %s\n", a.SourceEventID)
		}
		if a.Color != "" {
			fmt.Fprintf(&sb, "- Color: `%s`\n", a.Color)
		}
		if a.Description != "" {
			fmt.Fprintf(&sb, "\n%s\n", a.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Suggested Events\n\n")
	if len(b.Suggestions) == 0 {
		sb.WriteString("_No open suggestions._\n")
	} else {
		sb.WriteString("| Event | Dates | Year | Tier |\n")
		sb.WriteString("|-------|-------|------|------|\n")
		for _, ev := range b.Suggestions {
			tier := ""
			if ev.Tier {
				tier = "yes"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", ev.Label, dateSpan(ev.AdjustedStart.String(), ev.AdjustedEnd.String()), ev.YearLabel, tier)
		}
	}
	sb.WriteString("\n")

	if len(b.Dismissed) > 0 {
		sb.WriteString("## Dismissed\n\n")
		for _, id := range b.Dismissed {
			fmt.Fprintf(&sb, "- %s\n", id)
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

func dateSpan(start, end string) string {
	if start == end {
		return start
	}
	return start + " to " + end
}
