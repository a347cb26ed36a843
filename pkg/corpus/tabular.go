package corpus

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// nameFields are tried in order when titling a row chunk, so a record reads
// as "Name: Ada Lovelace" rather than "Row 17".
var nameFields = []string{"name", "full_name", "employee_id", "id", "title", "role"}

// chunkTabular turns each CSV row into its own chunk. Column names are kept
// inline ("col: value | col: value") so a row is a self-describing sentence
// instead of raw delimited values. Rows never split across chunks.
func (c *Chunker) chunkTabular(doc Document, text string) ([]Chunk, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", doc.Path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var chunks []Chunk
	index := 0
	for _, row := range records[1:] {
		values := make(map[string]string, len(headers))
		parts := make([]string, 0, len(headers))
		for i, cell := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			values[strings.ToLower(headers[i])] = cell
			parts = append(parts, fmt.Sprintf("%s: %s", headers[i], cell))
		}
		if len(parts) == 0 {
			continue
		}

		body := strings.Join(parts, " | ")
		wordCount := countWords(body)
		if wordCount < c.cfg.MinRowWords {
			continue
		}

		chunks = append(chunks, Chunk{
			ID:        ChunkID(doc.Path, doc.Role, index),
			Role:      doc.Role,
			Source:    doc.Source,
			Section:   rowTitle(values, index),
			Text:      body,
			Index:     index,
			WordCount: wordCount,
		})
		index++
	}

	return chunks, nil
}

func rowTitle(values map[string]string, index int) string {
	for _, field := range nameFields {
		if v, ok := values[field]; ok {
			return fmt.Sprintf("%s: %s", titleCase(field), v)
		}
	}
	return fmt.Sprintf("Row %d", index+1)
}

func titleCase(field string) string {
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
