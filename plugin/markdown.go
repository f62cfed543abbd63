package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrHeadersUnavailable is returned when requested headers are not present on
// every rendered test case.
var ErrHeadersUnavailable = errors.New("some of the headers provided aren't available in the JUnit report")

// cellEscaper keeps attribute values carrying pipes or line breaks inside
// their cell.
var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>", "\r", "<br>")

// Linker rewrites a cell value before it is written to the table.
type Linker func(value string) string

// CommonAttributes returns the attribute names present on every test case,
// sorted ascending. An empty batch has no common attributes.
func CommonAttributes(cases []TestCase) []string {
	if len(cases) == 0 {
		return nil
	}
	var common []string
	for key := range cases[0].Attributes {
		shared := true
		for _, tc := range cases[1:] {
			if _, ok := tc.Attributes[key]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, key)
		}
	}
	sort.Strings(common)
	return common
}

// Render builds a markdown pipe table of the test cases. With no headers the
// common attributes become the columns. A nil link leaves values untouched.
func Render(cases []TestCase, headers []string, link Linker) (string, error) {
	common := CommonAttributes(cases)
	keys := common
	if len(headers) > 0 {
		if missing := missingHeaders(headers, common); len(missing) > 0 {
			return "", fmt.Errorf("%w: %v", ErrHeadersUnavailable, missing)
		}
		keys = headers
	}
	if link == nil {
		link = func(v string) string { return v }
	}

	var b strings.Builder
	labels := make([]string, len(keys))
	separators := make([]string, len(keys))
	for i, key := range keys {
		labels[i] = capitalize(key)
		separators[i] = "---"
	}
	writeRow(&b, labels)
	writeRow(&b, separators)

	for _, tc := range cases {
		cells := make([]string, len(keys))
		for i, key := range keys {
			// A missing attribute renders as an empty cell to keep columns aligned.
			cells[i] = cellEscaper.Replace(link(tc.Attributes[key]))
		}
		writeRow(&b, cells)
	}
	return b.String(), nil
}

// FileLinker links cell values naming an existing file to that file at commit
// in the repository. Without a repository link or commit it is the identity.
func FileLinker(repoLink, commit string) Linker {
	repoLink = strings.TrimSuffix(repoLink, "/")
	return func(value string) string {
		if repoLink == "" || commit == "" || value == "" {
			return value
		}
		info, err := os.Stat(value)
		if err != nil || !info.Mode().IsRegular() {
			return value
		}
		path := filepath.Clean(value)
		if filepath.IsAbs(path) {
			wd, err := os.Getwd()
			if err != nil {
				return value
			}
			if path, err = filepath.Rel(wd, path); err != nil || strings.HasPrefix(path, "..") {
				return value
			}
		}
		return fmt.Sprintf("[%s](%s/blob/%s/%s)", value, repoLink, commit, filepath.ToSlash(path))
	}
}

func missingHeaders(headers, common []string) []string {
	available := make(map[string]struct{}, len(common))
	for _, key := range common {
		available[key] = struct{}{}
	}
	var missing []string
	for _, h := range headers {
		if _, ok := available[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString("|\n")
}

// capitalize upper-cases the first rune and leaves the rest as is.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
