// Package store accumulates generated candidates on disk and deduplicates them.
package store

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/vulnverified/altsweep/internal/wordlist"
)

// Store is a file-backed candidate sink. Append is safe for concurrent use.
type Store struct {
	output string
	path   string // accumulation file; output + ".tmp" when ignoring existing

	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Create truncates the accumulation file and opens it for appending.
// With ignoreExisting, candidates accumulate in a temporary file next to output
// and that file is removed by Finalize.
func Create(output string, ignoreExisting bool) (*Store, error) {
	path := output
	if ignoreExisting {
		path = output + ".tmp"
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create candidate file %s: %w", path, err)
	}
	return &Store{
		output: output,
		path:   path,
		f:      f,
		w:      bufio.NewWriter(f),
	}, nil
}

// Append writes one candidate line.
func (s *Store) Append(candidate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return fmt.Errorf("append to %s: store finalized", s.path)
	}
	if _, err := s.w.WriteString(candidate + "\n"); err != nil {
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	return nil
}

// Finalize closes the accumulation file, reads it back, drops duplicates and
// any candidate present in known, and writes the result to the output path.
// known may be nil. Finalize can be called again to re-read the output file.
func (s *Store) Finalize(known map[string]struct{}) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			s.f.Close()
			return nil, fmt.Errorf("flush %s: %w", s.path, err)
		}
		if err := s.f.Close(); err != nil {
			return nil, fmt.Errorf("close %s: %w", s.path, err)
		}
		s.w, s.f = nil, nil
	}

	src := s.path
	if _, err := os.Stat(src); os.IsNotExist(err) && src != s.output {
		// Already finalized: the temp file is gone, re-read the output.
		src = s.output
	}

	lines, err := wordlist.ReadLines(src)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}

	candidates := Dedupe(lines, known)
	if err := writeLines(s.output, candidates); err != nil {
		return nil, err
	}

	if src != s.output {
		if err := os.Remove(src); err != nil {
			return nil, fmt.Errorf("remove %s: %w", src, err)
		}
	}
	return candidates, nil
}

// Dedupe returns lines without repeats and without entries in known, keeping
// the first occurrence of each.
func Dedupe(lines []string, known map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		if _, ok := known[l]; ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write candidates %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write candidates %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write candidates %s: %w", path, err)
	}
	return f.Close()
}
