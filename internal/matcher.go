package internal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// PathPattern decides whether a path is excluded from the walk.
type PathPattern interface {
	Match(path string) bool
	Desc() string // for logs
}

type RegexPattern struct{ re *regexp.Regexp }

func (p *RegexPattern) Match(path string) bool { return p.re.MatchString(filepath.ToSlash(path)) }
func (p *RegexPattern) Desc() string           { return "re:" + p.re.String() }

type PlainPattern struct {
	s           string
	insensitive bool
}

func (p *PlainPattern) Match(path string) bool {
	path = filepath.ToSlash(path)
	if p.insensitive {
		return strings.Contains(strings.ToLower(path), p.s)
	}
	return strings.Contains(path, p.s)
}

func (p *PlainPattern) Desc() string {
	if p.insensitive {
		return "plain:i:" + p.s
	}
	return p.s
}

// ParsePattern understands:
//
//	node_modules
//	plain:i:Fixtures
//	re:(^|/)\.next/
func ParsePattern(line string) (PathPattern, error) {
	switch {
	case strings.HasPrefix(line, "re:"):
		re, err := regexp.Compile(line[3:])
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", line, err)
		}
		return &RegexPattern{re: re}, nil
	case strings.HasPrefix(line, "plain:i:"):
		return &PlainPattern{s: strings.ToLower(line[8:]), insensitive: true}, nil
	default:
		return &PlainPattern{s: line}, nil
	}
}

// ParsePatterns parses every non-empty entry of lines.
func ParsePatterns(lines []string) ([]PathPattern, error) {
	var ps []PathPattern
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p, err := ParsePattern(line)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// LoadPatterns reads one pattern per line; blank lines and # comments are skipped.
func LoadPatterns(path string) ([]PathPattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	ps, err := ParsePatterns(lines)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Loaded %d exclude patterns", len(ps))
	return ps, nil
}

func matchAny(ps []PathPattern, path string) bool {
	for _, p := range ps {
		if p.Match(path) {
			return true
		}
	}
	return false
}
