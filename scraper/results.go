package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var lotIdentRe = regexp.MustCompile(`(\d+[A-Za-z]*)`)

// ExtractResultTable scans every table on an auction page for the results
// table and returns lot identifier -> outcome text. A table qualifies when
// one header cell mentions "result" and another mentions both "lot" and
// "no". No qualifying table is the common case for auctions without
// published results; the empty map is not an error.
func ExtractResultTable(doc *goquery.Document) map[string]string {
	results := make(map[string]string)

	doc.Find("table").Each(func(ti int, table *goquery.Selection) {
		resultCol, lotCol := resultTableColumns(table)
		if resultCol < 0 || lotCol < 0 {
			return
		}

		table.Find("tr").Each(func(ri int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= resultCol || cells.Length() <= lotCol {
				return
			}

			lotCell := strings.TrimSpace(cells.Eq(lotCol).Text())
			m := lotIdentRe.FindStringSubmatch(lotCell)
			if m == nil {
				return
			}

			outcome := strings.TrimSpace(cells.Eq(resultCol).Text())
			if outcome != "" {
				results[m[1]] = outcome
			}
		})
	})

	return results
}

func resultTableColumns(table *goquery.Selection) (resultCol, lotCol int) {
	resultCol, lotCol = -1, -1

	headerRow := table.Find("tr").First()
	headerRow.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(cell.Text()))
		switch {
		case strings.Contains(text, "result") && resultCol < 0:
			resultCol = i
		case strings.Contains(text, "lot") && strings.Contains(text, "no") && lotCol < 0:
			lotCol = i
		}
	})

	return resultCol, lotCol
}
