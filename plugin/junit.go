package plugin

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	// ErrFileNotFound is returned when a report path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrMalformedXML is returned when a report cannot be decoded as XML.
	ErrMalformedXML = errors.New("malformed XML")
)

// ParseFiles parses the JUnit reports at paths into a fresh Report. Files are
// read in argument order. The first missing or unparseable file aborts the
// whole batch and no report is returned.
func ParseFiles(paths []string) (*Report, error) {
	report := &Report{}
	for _, path := range paths {
		cases, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		for _, tc := range cases {
			report.add(tc)
		}
	}
	return report, nil
}

// Parse parses a single JUnit report.
func Parse(path string) (*Report, error) {
	return ParseFiles([]string{path})
}

func parseFile(path string) ([]TestCase, error) {
	logrus.Infof("Processing file: %s", path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		logrus.WithField("File", path).Error("Report file does not exist")
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		logger := logrus.WithError(err).WithField("File", path)
		logger.Error("Failed to stat file")
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger := logrus.WithError(err).WithField("File", path)
		logger.Error("Failed to read file")
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	cases, err := ParseBytes(path, data)
	if err != nil {
		logger := logrus.WithError(err).WithField("File", path)
		logger.Error("Failed to parse JUnit XML")
		return nil, err
	}
	return cases, nil
}

// ParseBytes decodes one JUnit document and classifies its test cases. The
// name is only used in error messages.
func ParseBytes(name string, data []byte) ([]TestCase, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var root Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: no root element", ErrMalformedXML, name)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedXML, name, err)
	}
	if err := checkTrailing(dec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedXML, name, err)
	}

	var cases []TestCase
	for _, suite := range suites(root) {
		suiteCases := 0
		for _, el := range suite.Children("testcase") {
			cases = append(cases, classify(el))
			suiteCases++
		}
		logrus.WithField("File", name).Debugf("Suite %q: %d test cases", attr(suite, "name"), suiteCases)
	}
	return cases, nil
}

// checkTrailing consumes the rest of the document. Only whitespace, comments
// and processing instructions may follow the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("unexpected character data after root element")
			}
		}
	}
}

// charsetReader decodes documents declaring a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// suites returns the <testsuite> elements of a document. The nested
// <testsuites> layout is tried first, then a bare <testsuite> root. Any other
// root has no suites.
func suites(root Node) []Node {
	switch root.XMLName.Local {
	case "testsuites":
		return root.Children("testsuite")
	case "testsuite":
		return []Node{root}
	default:
		return nil
	}
}

// classify evaluates each bucket independently; a case carrying both
// <failure> and <error> lands in both.
func classify(el Node) TestCase {
	tc := TestCase{Attributes: make(map[string]string, len(el.Attrs))}
	for _, a := range el.Attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		tc.Attributes[a.Name.Local] = a.Value
	}
	tc.Passed = len(el.Nodes) == 0
	tc.Failed = len(el.Children("failure")) > 0
	tc.Errored = len(el.Children("error")) > 0
	tc.Skipped = len(el.Children("skipped")) > 0
	return tc
}

func attr(n Node, name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
