// Package wordlist reads newline-delimited alteration words and host lists.
package wordlist

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// DefaultPath is the wordlist read when none is given. If it does not exist the
// embedded list is used instead.
const DefaultPath = "words.txt"

//go:embed words.txt
var wordsFS embed.FS

// Default returns the embedded alteration wordlist.
func Default() []string {
	f, err := wordsFS.Open("words.txt")
	if err != nil {
		return nil
	}
	defer f.Close()

	words, _ := Parse(f)
	return words
}

// Load reads alteration words from path, falling back to the embedded list when
// path is DefaultPath and the file is missing.
func Load(path string) ([]string, error) {
	words, err := ReadLines(path)
	if err != nil && path == DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return words, err
}

// ReadLines reads a newline-delimited file. Lines are trimmed and empty
// lines/comments are skipped.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// Parse reads trimmed, non-empty, non-comment lines from r.
func Parse(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
