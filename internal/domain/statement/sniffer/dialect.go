package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// maxDialectLines bounds how many lines are inspected for the delimiter.
const maxDialectLines = 30

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the delimiter that splits the most lines into the
// most consistent number of fields. Leading metadata lines ("Customer Name:
// Ali") are outvoted by the transaction rows below them.
func DetectDelimiter(data []byte) (rune, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return 0, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	votes := make(map[rune]int, len(candidateDelimiters))
	inspected := 0
	for i, line := range lines {
		if inspected >= maxDialectLines {
			break
		}
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		inspected++
		if d, count := detectDelimiter(line); count > 0 {
			votes[d]++
		}
	}

	best, bestVotes := rune(0), 0
	for _, d := range candidateDelimiters {
		if votes[d] > bestVotes {
			best, bestVotes = d, votes[d]
		}
	}
	if best == 0 {
		// A single-column file is still readable with the default delimiter.
		if inspected > 0 {
			return ',', nil
		}
		return 0, ErrInvalidDelimiter
	}
	return best, nil
}

// cleanLine trims carriage returns and the UTF-8 BOM of the first line.
func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range candidateDelimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// Fingerprint hashes normalized header names. Uploads of the same bank layout
// share a fingerprint.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
