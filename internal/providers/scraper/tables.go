package scraper

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Table is one extracted table. TotalRows counts data rows before capping.
type Table struct {
	Headers   []string   `json:"headers,omitempty"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// Tables extracts up to maxTables tables under root with at most maxRows
// data rows each.
func Tables(root *html.Node, maxTables, maxRows int) []Table {
	out := []Table{}
	for _, n := range htmlquery.Find(root, "//table") {
		if maxTables > 0 && len(out) >= maxTables {
			break
		}
		out = append(out, tableOf(n, maxRows))
	}
	return out
}

// tableOf reads one table. A first row made only of header cells becomes
// the header line.
func tableOf(n *html.Node, maxRows int) Table {
	t := Table{Rows: [][]string{}}
	for i, tr := range ownRows(n) {
		cells := htmlquery.Find(tr, "./th|./td")
		if len(cells) == 0 {
			continue
		}
		if i == 0 && len(htmlquery.Find(tr, "./td")) == 0 {
			for _, c := range cells {
				t.Headers = append(t.Headers, NormalizeWhitespace(htmlquery.InnerText(c)))
			}
			continue
		}
		t.TotalRows++
		if maxRows > 0 && len(t.Rows) >= maxRows {
			continue
		}
		row := make([]string, 0, len(cells))
		for _, c := range cells {
			row = append(row, NormalizeWhitespace(htmlquery.InnerText(c)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ownRows returns the rows of n without descending into nested tables.
func ownRows(n *html.Node) []*html.Node {
	return htmlquery.Find(n, "./tr | ./thead/tr | ./tbody/tr | ./tfoot/tr")
}
