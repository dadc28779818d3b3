package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dartlab/divcollect/internal/model"
)

const fullReport = `<html><body>
<table id="XFormD1_Form0_Table0" border="1">
<tr><td>1. 배당구분</td><td>결산배당</td></tr>
<tr><td>2. 배당종류</td><td>현금배당</td></tr>
<tr><td>3. 1주당 배당금(원)</td><td>보통주식</td><td>361</td><td>종류주식</td><td>362</td></tr>
<tr><td>4. 시가배당율(%)</td><td>보통주식</td><td>0.5</td><td>종류주식</td><td>0.6</td></tr>
<tr><td>5. 배당금총액(원)</td><td>2,452,153,599,250</td></tr>
<tr><td>6. 배당기준일</td><td>2023-12-31</td></tr>
<tr><td>7. 배당금지급 예정일자</td><td>-</td></tr>
<tr><td>8. 주주총회 개최여부</td><td>개최</td></tr>
<tr><td>9. 주주총회 예정일자</td><td>2024-03-20</td></tr>
<tr><td>10. 이사회결의일(결정일)</td><td>2024-01-30</td></tr>
</table>
</body></html>`

func TestExtract_FullTable(t *testing.T) {
	f := Extract(fullReport)

	assert.Equal(t, "결산배당", f.DivType)
	assert.Equal(t, "현금배당", f.DivKind)
	assert.Equal(t, "361", f.PerShareCommon)
	assert.Equal(t, "362", f.PerSharePreferred)
	assert.Equal(t, "0.5", f.YieldCommon)
	assert.Equal(t, "0.6", f.YieldPreferred)
	assert.Equal(t, "2,452,153,599,250", f.TotalAmount)
	assert.Equal(t, "2023-12-31", f.RecordDate)
	assert.Equal(t, "-", f.PaymentDate)
	assert.Equal(t, "개최", f.MeetingHeld)
	assert.Equal(t, "2024-03-20", f.MeetingDate)
	assert.Equal(t, "2024-01-30", f.BoardDecisionDate)
}

func TestExtract_AttributionRule(t *testing.T) {
	body := `<table id="XFormD2">
<tr><td>3. 1주당 배당금</td><td>보통주</td><td>500</td><td>종류주식</td><td>450</td></tr>
</table>`

	f := Extract(body)
	assert.Equal(t, "500", f.PerShareCommon)
	assert.Equal(t, "450", f.PerSharePreferred)
}

func TestExtract_CommonOnlyRow(t *testing.T) {
	body := `<table id="XFormD2">
<tr><td>3. 1주당 배당금</td><td>보통주식</td><td>1,200</td></tr>
</table>`

	f := Extract(body)
	assert.Equal(t, "1,200", f.PerShareCommon)
	assert.Equal(t, model.Missing, f.PerSharePreferred)
}

func TestExtract_NoMatchingTable(t *testing.T) {
	body := `<html><body><table id="OtherTable"><tr><td>1. x</td><td>y</td></tr></table></body></html>`

	f := Extract(body)
	assert.Equal(t, model.AllMissing(), f)
}

func TestExtract_EmptyBody(t *testing.T) {
	assert.Equal(t, model.AllMissing(), Extract(""))
	assert.Equal(t, model.AllMissing(), Extract("   \n\t"))
}

func TestExtract_EmptyLastCellIsMissing(t *testing.T) {
	body := `<table id="XFormD9">
<tr><td>6. 배당기준일</td><td></td></tr>
</table>`

	f := Extract(body)
	assert.Equal(t, model.Missing, f.RecordDate)
}

func TestExtract_MissingRowsStaySentinel(t *testing.T) {
	body := `<table id="XFormD3">
<tr><td>1. 배당구분</td><td>중간배당</td></tr>
</table>`

	f := Extract(body)
	assert.Equal(t, "중간배당", f.DivType)
	assert.Equal(t, model.Missing, f.DivKind)
	assert.Equal(t, model.Missing, f.TotalAmount)
	assert.Equal(t, model.Missing, f.BoardDecisionDate)
}

func TestExtract_TenthLabelNotConfusedWithFirst(t *testing.T) {
	body := `<table id="XFormD4">
<tr><td>10. 이사회결의일(결정일)</td><td>2024-02-01</td></tr>
</table>`

	f := Extract(body)
	assert.Equal(t, model.Missing, f.DivType)
	assert.Equal(t, "2024-02-01", f.BoardDecisionDate)
}
