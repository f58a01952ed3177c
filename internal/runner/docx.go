package runner

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	docxFont     = "Calibri"
	docxFontSize = 11
)

var (
	rePartHeading = regexp.MustCompile(`^Part \d+$`)
	reMdHeading   = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	reMdBullet    = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reMdBold      = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// writeDocx renders the combined summary into <dir>/<runID>.docx. Part
// headings and markdown-style structure in the model output get basic
// styling; everything else becomes plain paragraphs.
func writeDocx(runID, combined, dir string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addRun(doc.AddParagraph(""), runID, true, 15)

	for _, line := range strings.Split(combined, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if rePartHeading.MatchString(trimmed) {
			doc.AddParagraph("")
			addRun(doc.AddParagraph(""), trimmed, true, 13)
			continue
		}
		if m := reMdHeading.FindStringSubmatch(trimmed); m != nil {
			addRun(doc.AddParagraph(""), m[1], true, 12)
			continue
		}
		if m := reMdBullet.FindStringSubmatch(trimmed); m != nil {
			addInline(doc.AddParagraph(""), "• "+m[1])
			continue
		}
		addInline(doc.AddParagraph(""), trimmed)
	}

	return doc.SaveTo(filepath.Join(dir, runID+".docx"))
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(stripInlineMarkdown(text)).Font(docxFont).Size(size)
	if bold {
		run.Bold(true)
	}
}

// addInline splits a line on **bold** spans so emphasis survives the
// conversion.
func addInline(p *docx.Paragraph, text string) {
	parts := reMdBold.Split(text, -1)
	matches := reMdBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(stripInlineMarkdown(part)).Font(docxFont).Size(docxFontSize)
		}
		if i < len(matches) {
			p.AddText(stripInlineMarkdown(matches[i][1])).Font(docxFont).Size(docxFontSize).Bold(true)
		}
	}
}

func stripInlineMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
