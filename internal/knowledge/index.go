// Package knowledge provides the knowledge-base index used to retrieve
// supporting material for each tender requirement.
package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Record represents one indexed knowledge-base file. Records are created at
// index build time and read-only afterward.
type Record struct {
	Path     string
	Text     string
	Keywords map[string]int
	Size     int64
}

// Match pairs a record with its relevance score for one query
type Match struct {
	Record *Record
	Score  float64
}

// Result is an ordered retrieval result, descending by score with ties broken
// by original scan order.
type Result []Match

// Index holds the scanned knowledge base and answers ranked-retrieval queries
type Index struct {
	records  []*Record
	warnings []string
}

// textExtensions lists file types the scanner treats as text-bearing
var textExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// Build scans every eligible file under dir (recursively) into an Index.
// Unreadable or unsupported files are skipped with a recorded warning; only a
// failure to walk the root directory itself is fatal.
func Build(dir string) (*Index, error) {
	idx := &Index{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			idx.warn("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !textExtensions[ext] {
			idx.warn("skipping %s: unsupported file type %q", path, ext)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			idx.warn("skipping %s: %v", path, err)
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			idx.warn("skipping %s: %v", path, err)
			return nil
		}

		text := string(raw)
		if ext == ".html" || ext == ".htm" {
			text, err = ExtractHTMLText(text)
			if err != nil {
				idx.warn("skipping %s: %v", path, err)
				return nil
			}
		}

		idx.records = append(idx.records, &Record{
			Path:     path,
			Text:     text,
			Keywords: deriveKeywords(text),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge base %s: %w", dir, err)
	}

	return idx, nil
}

// Len returns the number of indexed records
func (idx *Index) Len() int {
	return len(idx.records)
}

// Warnings returns the non-fatal problems recorded during the scan
func (idx *Index) Warnings() []string {
	return idx.warnings
}

// Query scores every record against the query text and returns the top topK
// matches, descending by score with stable tie-break by scan order.
// A non-positive topK or an empty index yields an empty result, never an error.
func (idx *Index) Query(text string, topK int) Result {
	if topK <= 0 || len(idx.records) == 0 {
		return Result{}
	}

	queryTokens := deriveKeywords(text)
	if len(queryTokens) == 0 {
		return Result{}
	}

	matches := make(Result, 0, len(idx.records))
	for _, rec := range idx.records {
		matches = append(matches, Match{Record: rec, Score: similarity(queryTokens, rec.Keywords)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches
}

func (idx *Index) warn(format string, args ...any) {
	idx.warnings = append(idx.warnings, fmt.Sprintf(format, args...))
}

// stopwords excluded from derived keyword sets
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "with": true,
}

// deriveKeywords tokenizes text into a lowercase term-frequency map.
// CJK runes are indexed individually so Chinese tender material matches
// without a segmenter.
func deriveKeywords(text string) map[string]int {
	keywords := make(map[string]int)
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		token := strings.ToLower(word.String())
		word.Reset()
		if len(token) < 2 || stopwords[token] {
			return
		}
		keywords[token]++
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			keywords[string(r)]++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return keywords
}

// similarity computes keyword-overlap relevance in [0,1]: the fraction of
// query terms present in the record, weighted by query term frequency.
func similarity(query, record map[string]int) float64 {
	total := 0
	matched := 0
	for token, count := range query {
		total += count
		if record[token] > 0 {
			matched += count
		}
	}
	if total == 0 {
		return 0.0
	}
	return float64(matched) / float64(total)
}
