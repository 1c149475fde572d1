package scraper

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// RenderTables parses an HTML document and renders each <table> as a markdown
// table block, separated by blank lines. The first row of a table becomes the
// header and is followed by an alignment row, which is the shape the table
// package expects.
func RenderTables(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errors.Wrap(err, "parsing HTML")
	}

	blocks := make([]string, 0)
	doc.Find("table").Each(func(i int, tbl *goquery.Selection) {
		if block := renderTable(tbl); block != "" {
			blocks = append(blocks, block)
		}
	})

	return strings.Join(blocks, "\n\n"), nil
}

func renderTable(tbl *goquery.Selection) string {
	var rows [][]string
	tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// Rows of nested tables belong to the nested table
		if tr.Closest("table").Get(0) != tbl.Get(0) {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	for i, cells := range rows {
		b.WriteString("|" + strings.Join(cells, "|") + "|\n")
		if i == 0 {
			b.WriteString(strings.Repeat("|:-", len(cells)) + "|\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// cellText flattens a cell to one line. Links are written back as markdown so
// the cell reads the same as it does in the post source.
func cellText(cell *goquery.Selection) string {
	cell = cell.Clone()
	cell.Find("a").Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		text := strings.TrimSpace(a.Text())
		if ok && href != "" {
			a.ReplaceWithHtml("[" + escapeHTML(text) + "](" + escapeHTML(href) + ")")
		}
	})
	return strings.Join(strings.Fields(cell.Text()), " ")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
