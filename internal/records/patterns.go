package records

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

var (
	ErrPatternImport = errors.New("failed to import pattern file")
	ErrPatternExport = errors.New("failed to export pattern file")
)

type patternList []*regexp.Regexp

// ClassifyName returns the first name pattern matching the display name,
// if any. Matching never mutates the store, acting on a match is the
// caller's call.
func (s *Store) ClassifyName(name string) (*regexp.Regexp, bool) {
	for _, pattern := range s.patterns {
		if pattern.MatchString(name) {
			return pattern, true
		}
	}

	return nil, false
}

// AddPattern compiles and appends a single name pattern.
func (s *Store) AddPattern(expr string) error {
	pattern, errCompile := regexp.Compile(expr)
	if errCompile != nil {
		return errors.Join(errCompile, ErrPatternImport)
	}

	s.patterns = append(s.patterns, pattern)

	return nil
}

func (s *Store) Patterns() []*regexp.Regexp {
	return s.patterns
}

// ImportPatterns reads line oriented regular expressions, one per line,
// appending each one that compiles to the pattern list. Lines that fail to
// compile are logged and skipped, blank lines ignored. Returns how many
// patterns were added and how many lines were skipped.
func (s *Store) ImportPatterns(reader io.Reader) (int, int) {
	var (
		added   int
		skipped int
		scanner = bufio.NewScanner(reader)
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		pattern, errCompile := regexp.Compile(line)
		if errCompile != nil {
			slog.Error("Error compiling name pattern", slog.String("pattern", line),
				slog.String("error", errCompile.Error()))
			skipped++

			continue
		}

		s.patterns = append(s.patterns, pattern)
		added++
	}

	return added, skipped
}

// ReloadPatternsFile replaces the pattern list with the file contents.
// The existing list is kept when the file cannot be opened.
func (s *Store) ReloadPatternsFile(path string) (int, int, error) {
	file, errOpen := os.Open(path)
	if errOpen != nil {
		return 0, 0, errors.Join(errOpen, ErrPatternImport)
	}
	defer file.Close()

	s.patterns = nil
	added, skipped := s.ImportPatterns(file)

	return added, skipped, nil
}

// ImportPatternsFile is ImportPatterns reading from a file path.
func (s *Store) ImportPatternsFile(path string) (int, int, error) {
	file, errOpen := os.Open(path)
	if errOpen != nil {
		return 0, 0, errors.Join(errOpen, ErrPatternImport)
	}
	defer file.Close()

	added, skipped := s.ImportPatterns(file)

	return added, skipped, nil
}

// ExportPatterns writes the pattern list one expression per line.
func (s *Store) ExportPatterns(writer io.Writer) error {
	buffered := bufio.NewWriter(writer)
	for _, pattern := range s.patterns {
		if _, err := buffered.WriteString(pattern.String() + "\n"); err != nil {
			return errors.Join(err, ErrPatternExport)
		}
	}

	if err := buffered.Flush(); err != nil {
		return errors.Join(err, ErrPatternExport)
	}

	return nil
}

// ExportPatternsFile is ExportPatterns writing to a file path.
func (s *Store) ExportPatternsFile(path string) error {
	file, errCreate := os.Create(path)
	if errCreate != nil {
		return errors.Join(errCreate, ErrPatternExport)
	}
	defer file.Close()

	return s.ExportPatterns(file)
}
