package corpus

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	emphasisRe = regexp.MustCompile("[*_`~]")
	spaceRe    = regexp.MustCompile(`[ \t]+`)
)

type section struct {
	title   string
	content string
}

// chunkProse splits markdown or plain text into word-window chunks with
// overlap, one pass per heading section. Cuts prefer sentence boundaries;
// when no boundary lands inside the window the cut is hard at the limit.
func (c *Chunker) chunkProse(doc Document, text string) []Chunk {
	sections := extractSections(cleanProse(text))
	if len(sections) == 0 {
		return nil
	}

	title := strings.TrimSuffix(doc.Source, filepath.Ext(doc.Source))

	var chunks []Chunk
	index := 0
	for _, sec := range sections {
		sectionTitle := sec.title
		if sectionTitle == "" {
			sectionTitle = title
		}

		for _, piece := range c.windowWords(strings.Fields(sec.content)) {
			if len(piece) < c.cfg.MinWords {
				continue
			}
			body := strings.Join(piece, " ")
			chunks = append(chunks, Chunk{
				ID:        ChunkID(doc.Path, doc.Role, index),
				Role:      doc.Role,
				Source:    doc.Source,
				Section:   sectionTitle,
				Text:      body,
				Index:     index,
				WordCount: len(piece),
			})
			index++
		}
	}

	return chunks
}

// windowWords slides a fixed-size window over words with overlap between
// consecutive windows. The window end pulls back to the nearest sentence
// terminator when one falls inside the overlap region.
func (c *Chunker) windowWords(words []string) [][]string {
	if len(words) == 0 {
		return nil
	}
	if len(words) <= c.cfg.MaxWords {
		return [][]string{words}
	}

	var out [][]string
	start := 0
	for start < len(words) {
		end := start + c.cfg.MaxWords
		if end >= len(words) {
			out = append(out, words[start:])
			break
		}

		// Prefer a sentence boundary within the overlap tail of the window.
		cut := end
		for i := end - 1; i > end-c.cfg.OverlapWords && i > start; i-- {
			if endsSentence(words[i]) {
				cut = i + 1
				break
			}
		}

		out = append(out, words[start:cut])

		next := cut - c.cfg.OverlapWords
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}

func endsSentence(word string) bool {
	trimmed := strings.TrimRight(word, `"')]`)
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}

// extractSections splits text on markdown headings. Text before the first
// heading, or a document with no headings at all, becomes a single untitled
// section.
func extractSections(text string) []section {
	var sections []section
	current := section{}
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			current.content = content
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			current = section{title: strings.TrimSpace(m[2])}
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// cleanProse strips markdown emphasis and collapses runs of spaces while
// keeping line structure intact for heading detection.
func cleanProse(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if headingRe.MatchString(strings.TrimSpace(line)) {
			lines[i] = strings.TrimSpace(line)
			continue
		}
		line = emphasisRe.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, "|", " | ")
		lines[i] = spaceRe.ReplaceAllString(line, " ")
	}
	return strings.Join(lines, "\n")
}
