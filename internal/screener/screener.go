// Package screener flags records whose visible text contains a
// configured NG term.
package screener

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leontonobunaga/amaprice/internal/models"
)

// Screener performs case-insensitive substring containment against a
// fixed term list. Matching is deliberately untokenized: a short term
// can match inside an unrelated longer word. That over-matching is
// known, accepted behavior of the term lists in use.
type Screener struct {
	terms  []string
	logger *slog.Logger
}

func New(terms []string, logger *slog.Logger) *Screener {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return &Screener{
		terms:  cleaned,
		logger: logger.With("component", "screener"),
	}
}

// LoadFile builds a Screener from the first existing path. Blank lines
// and lines starting with # are skipped. No path existing yields an
// empty screener that flags nothing.
func LoadFile(logger *slog.Logger, paths ...string) (*Screener, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read NG-word file: %w", err)
		}

		var terms []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			// CSV-style lists carry several terms per row.
			for _, cell := range strings.Split(line, ",") {
				if cell = strings.TrimSpace(cell); cell != "" {
					terms = append(terms, cell)
				}
			}
		}

		s := New(terms, logger)
		s.logger.Info("loaded NG-word list", "path", path, "terms", len(s.terms))
		return s, nil
	}

	logger.Warn("no NG-word file found, screening disabled")
	return New(nil, logger), nil
}

// TermCount returns the number of loaded terms.
func (s *Screener) TermCount() int {
	return len(s.terms)
}

// Screen checks every text and returns the union of matched terms, each
// term reported once.
func (s *Screener) Screen(texts ...string) models.ScreenResult {
	seen := make(map[string]bool)
	var matched []string

	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, term := range s.terms {
			if seen[term] {
				continue
			}
			if strings.Contains(lower, strings.ToLower(term)) {
				seen[term] = true
				matched = append(matched, term)
			}
		}
	}

	return models.ScreenResult{
		Flagged:      len(matched) > 0,
		MatchedTerms: matched,
	}
}
