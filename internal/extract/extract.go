// Package extract parses dividend-decision report bodies into the fixed
// dividend-field schema.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dartlab/divcollect/internal/model"
)

// tableIDPrefix marks the dividend table in the rendered report form.
const tableIDPrefix = "XFormD"

// Marker tokens that attribute a row cell to common or class (preferred)
// stock via the cell immediately preceding it.
const (
	commonMarker = "보통"
	classMarker  = "종류"
)

// Extract parses a report body into the twelve dividend fields. It never
// fails: an empty or unparseable body, or a body without the expected
// table, yields all fields set to the missing sentinel.
//
// The common/preferred attribution matches marker substrings in the
// preceding cell. That mirrors the disclosure form layout and is best
// effort; tables that deviate from it degrade to the sentinel.
func Extract(body string) model.DividendFields {
	fields := model.AllMissing()

	if strings.TrimSpace(body) == "" {
		return fields
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fields
	}

	table := doc.Find("table[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		return strings.HasPrefix(id, tableIDPrefix)
	}).First()
	if table.Length() == 0 {
		return fields
	}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) == 0 {
			return
		}

		switch label := cells[0]; {
		case strings.HasPrefix(label, "1."):
			fields.DivType = lastCell(cells)
		case strings.HasPrefix(label, "2."):
			fields.DivKind = lastCell(cells)
		case strings.HasPrefix(label, "3."):
			fields.PerShareCommon = attributed(cells, commonMarker)
			fields.PerSharePreferred = attributed(cells, classMarker)
		case strings.HasPrefix(label, "4."):
			fields.YieldCommon = attributed(cells, commonMarker)
			fields.YieldPreferred = attributed(cells, classMarker)
		case strings.HasPrefix(label, "5."):
			fields.TotalAmount = lastCell(cells)
		case strings.HasPrefix(label, "6."):
			fields.RecordDate = lastCell(cells)
		case strings.HasPrefix(label, "7."):
			fields.PaymentDate = lastCell(cells)
		case strings.HasPrefix(label, "8."):
			fields.MeetingHeld = lastCell(cells)
		case strings.HasPrefix(label, "9."):
			fields.MeetingDate = lastCell(cells)
		case strings.HasPrefix(label, "10."):
			fields.BoardDecisionDate = lastCell(cells)
		}
	})

	return fields
}

// lastCell returns the row's final cell value, or the missing sentinel
// when it is empty.
func lastCell(cells []string) string {
	return orMissing(cells[len(cells)-1])
}

// attributed returns the first cell whose immediately preceding cell
// contains marker, or the missing sentinel when no cell matches.
func attributed(cells []string, marker string) string {
	for i := 1; i < len(cells); i++ {
		if strings.Contains(cells[i-1], marker) {
			return orMissing(cells[i])
		}
	}
	return model.Missing
}

func orMissing(v string) string {
	if v == "" {
		return model.Missing
	}
	return v
}
