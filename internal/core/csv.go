package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxHeaderSearchRows is the maximum number of rows to scan for the header.
// Exports often carry a title block above the real header.
var MaxHeaderSearchRows = 20

var (
	// ErrEmptyFile is returned when an import contains no rows at all.
	ErrEmptyFile = errors.New("file is empty")
	// ErrHeaderNotFound is returned when no row looks like a header.
	ErrHeaderNotFound = errors.New("no recognizable header row")
)

// candidateDelimiters are tried when a source does not force a delimiter.
var candidateDelimiters = []rune{',', ';', '\t'}

// ReadCSV decodes a CSV export into raw rows keyed by its header cells.
//
// The header row is the one among the first MaxHeaderSearchRows rows with the
// most cells that resolve to canonical fields. Blank rows are dropped. A zero
// delimiter is sniffed from the leading lines.
func ReadCSV(r io.Reader, headers HeaderMap, delimiter rune) ([]RawRecord, error) {
	br := bufio.NewReader(r)
	if delimiter == 0 {
		delimiter = sniffDelimiter(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headerRow := findHeaderRow(records, newHeaderResolver(headers))
	if headerRow < 0 {
		return nil, ErrHeaderNotFound
	}

	header := make([]string, len(records[headerRow]))
	for i, h := range records[headerRow] {
		header[i] = CleanCell(h)
	}

	rows := make([]RawRecord, 0, len(records)-headerRow-1)
	for _, rec := range records[headerRow+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make(RawRecord, len(header))
		for i, h := range header {
			if h == "" || i >= len(rec) {
				continue
			}
			if prev, dup := row[h]; dup && strings.TrimSpace(prev.(string)) != "" {
				continue
			}
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter picks the candidate delimiter that appears most often in the
// first MaxHeaderSearchRows non-blank lines, ignoring quoted text. Title lines
// above the header carry no delimiters, so they do not skew the count.
// Defaults to comma.
func sniffDelimiter(br *bufio.Reader) rune {
	sample, _ := br.Peek(br.Size())

	counts := make(map[rune]int, len(candidateDelimiters))
	lines := 0
	for _, line := range strings.Split(string(sample), "\n") {
		if lines >= MaxHeaderSearchRows {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++

		inQuotes := false
		for _, c := range line {
			if c == '"' {
				inQuotes = !inQuotes
				continue
			}
			if !inQuotes {
				counts[c]++
			}
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// findHeaderRow returns the index of the best header candidate, or -1.
// Ties go to the earlier row.
func findHeaderRow(records [][]string, resolver *headerResolver) int {
	maxRows := MaxHeaderSearchRows
	if len(records) < maxRows {
		maxRows = len(records)
	}

	best, bestScore := -1, 0
	for i := 0; i < maxRows; i++ {
		score := 0
		for _, cell := range records[i] {
			if _, ok := resolver.resolve(CleanCell(cell)); ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
