package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParsePattern(t *testing.T) {
	cases := []struct {
		line  string
		path  string
		match bool
		desc  string
	}{
		{"node_modules", "/repo/node_modules/react/index.js", true, "node_modules"},
		{"node_modules", "/repo/src/app.ts", false, "node_modules"},
		{"plain:i:Fixtures", "/repo/test/fixtures/a.ts", true, "plain:i:fixtures"},
		{`re:\.test\.[jt]sx?$`, "/repo/src/app.test.tsx", true, `re:\.test\.[jt]sx?$`},
		{`re:\.test\.[jt]sx?$`, "/repo/src/app.tsx", false, `re:\.test\.[jt]sx?$`},
	}
	for _, tc := range cases {
		p, err := ParsePattern(tc.line)
		if err != nil {
			t.Fatalf("ParsePattern(%q): %v", tc.line, err)
		}
		if got := p.Match(filepath.FromSlash(tc.path)); got != tc.match {
			t.Errorf("%q.Match(%q) = %v", tc.line, tc.path, got)
		}
		if p.Desc() != tc.desc {
			t.Errorf("unexpected desc: %q", p.Desc())
		}
	}
}

func TestParsePatterns_SkipsBlank(t *testing.T) {
	ps, err := ParsePatterns([]string{"", "  ", ".git", "dist"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(ps))
	}
	if !matchAny(ps, "/x/dist/bundle.js") || matchAny(ps, "/x/src/a.js") {
		t.Fatal("matchAny gave wrong answer")
	}
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "exclude.txt")
	content := `
# build output
.next/
plain:i:STORYBOOK
re:(^|/)coverage/
`
	if err := os.WriteFile(fp, []byte(content), 0644); err != nil {
		t.Fatalf("write patterns: %v", err)
	}

	ps, err := LoadPatterns(fp)
	if err != nil {
		t.Fatalf("LoadPatterns error: %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("expected 3 patterns, got %d", len(ps))
	}
	if !ps[0].Match("/app/.next/server/page.js") {
		t.Errorf("plain should match as substring")
	}
	if !ps[1].Match("/app/Storybook/button.tsx") {
		t.Errorf("plain:i should match regardless of case")
	}
	if !ps[2].Match("coverage/lcov.js") || ps[2].Match("/app/undercoverage.ts") {
		t.Errorf("regex match failed")
	}
}

func TestLoadPatterns_InvalidRegex(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "bad.txt")
	_ = os.WriteFile(fp, []byte("re:[\n"), 0644)
	if _, err := LoadPatterns(fp); err == nil {
		t.Fatal("expected regex compile error")
	}
}

func TestLoadPatterns_FileNotExist(t *testing.T) {
	if _, err := LoadPatterns("doesnotexist_12345.txt"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
