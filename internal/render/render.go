// Package render turns a report context into a downloadable document.
package render

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"matatu_manager/internal/reports"
)

// Renderer produces one document format.
type Renderer interface {
	Render(name string, rc reports.ReportContext) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat picks the renderer for a format query value. The empty format is PDF.
func ForFormat(format, company string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "pdf":
		return NewPDF(company), nil
	case "html":
		return NewHTML(company)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// Filename builds "<entity>_<start>.<ext>" with the entity made safe for a header.
func Filename(entity, start, ext string) string {
	return fmt.Sprintf("%s_%s.%s", safeFilenamePart(entity), safeFilenamePart(start), ext)
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "report"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", ";", "_")
	s = replacer.Replace(s)
	return truncateRunes(s, maxFilenamePart)
}

const maxFilenamePart = 60

// truncateRunes cuts s to at most n bytes without splitting a character.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// money formats an amount as "KES 12,345.60".
func money(v float64) string {
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := fmt.Sprintf("%d", cents/100)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("KES %s.%02d", b.String(), cents%100)
	if neg {
		return "-" + out
	}
	return out
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
