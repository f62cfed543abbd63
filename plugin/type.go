package plugin

import "encoding/xml"

// Node is a generic XML element. JUnit producers disagree on layout, so the
// report is decoded as a tree and walked instead of being bound to a schema.
type Node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []Node     `xml:",any"`
}

// Children returns the direct child elements with the given local name.
func (n Node) Children(name string) []Node {
	var out []Node
	for _, child := range n.Nodes {
		if child.XMLName.Local == name {
			out = append(out, child)
		}
	}
	return out
}

// TestCase represents a single <testcase> element.
type TestCase struct {
	Attributes map[string]string
	Passed     bool
	Failed     bool
	Errored    bool
	Skipped    bool
}

// Report holds the test cases of one parse call, in file then document order.
type Report struct {
	Tests    []TestCase
	Passes   []TestCase
	Failures []TestCase
	Errors   []TestCase
	Skipped  []TestCase
}

// Results summarizes a Report.
type Results struct {
	Total    int
	Passes   int
	Failures int
	Errors   int
	Skipped  int
}

// Results returns the bucket counts of the report.
func (r *Report) Results() Results {
	return Results{
		Total:    len(r.Tests),
		Passes:   len(r.Passes),
		Failures: len(r.Failures),
		Errors:   len(r.Errors),
		Skipped:  len(r.Skipped),
	}
}

// add appends a test case to the unfiltered list and every bucket it belongs to.
func (r *Report) add(tc TestCase) {
	r.Tests = append(r.Tests, tc)
	if tc.Passed {
		r.Passes = append(r.Passes, tc)
	}
	if tc.Failed {
		r.Failures = append(r.Failures, tc)
	}
	if tc.Errored {
		r.Errors = append(r.Errors, tc)
	}
	if tc.Skipped {
		r.Skipped = append(r.Skipped, tc)
	}
}
