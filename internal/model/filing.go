// Package model defines the record types shared across the collector.
package model

// Missing is the sentinel written into any dividend field whose value
// could not be extracted. Downstream consumers test against it to detect
// incomplete records; it is never an empty string and never absent.
const Missing = "-"

// Company is one listed corporation from the DART corp-code registry.
// The full set is replaced wholesale on cache refresh, never patched.
type Company struct {
	CorpCode  string `json:"corp_code"`
	CorpName  string `json:"corp_name"`
	StockCode string `json:"stock_code"`
}

// FilingReference identifies one disclosure returned by the filing-list
// endpoint. ReceiptNo is globally unique and serves as the corpus
// primary key.
type FilingReference struct {
	CorpCode    string `json:"corp_code"`
	ReportName  string `json:"report_nm"`
	ReceiptNo   string `json:"rcept_no"`
	ReceiptDate string `json:"rcept_dt"`
}

// DividendFields is the fixed twelve-field schema extracted from a
// dividend-decision report table. Every field is always populated;
// Missing marks values the extractor could not recover.
type DividendFields struct {
	DivType           string `json:"div_type"`
	DivKind           string `json:"div_kind"`
	PerShareCommon    string `json:"per_share_common"`
	PerSharePreferred string `json:"per_share_preferred"`
	YieldCommon       string `json:"yield_common"`
	YieldPreferred    string `json:"yield_preferred"`
	TotalAmount       string `json:"total_amount"`
	RecordDate        string `json:"record_date"`
	PaymentDate       string `json:"payment_date"`
	MeetingHeld       string `json:"meeting_held"`
	MeetingDate       string `json:"meeting_date"`
	BoardDecisionDate string `json:"board_decision_date"`
}

// AllMissing returns a DividendFields with every field set to Missing.
func AllMissing() DividendFields {
	return DividendFields{
		DivType:           Missing,
		DivKind:           Missing,
		PerShareCommon:    Missing,
		PerSharePreferred: Missing,
		YieldCommon:       Missing,
		YieldPreferred:    Missing,
		TotalAmount:       Missing,
		RecordDate:        Missing,
		PaymentDate:       Missing,
		MeetingHeld:       Missing,
		MeetingDate:       Missing,
		BoardDecisionDate: Missing,
	}
}

// FilingRecord is the unit of persistence: one collected filing with its
// raw body and extracted dividend fields.
type FilingRecord struct {
	CorpCode    string `json:"corp_code"`
	CorpName    string `json:"corp_name"`
	StockCode   string `json:"stock_code"`
	ReceiptDate string `json:"rcept_dt"`
	ReportName  string `json:"report_nm"`
	ReceiptNo   string `json:"rcept_no"`
	HTML        string `json:"html"`
	DividendFields
}

// SnapshotHeader lists the CSV snapshot columns in order. The raw body is
// deliberately excluded; the JSONL log carries it.
func SnapshotHeader() []string {
	return []string{
		"corp_code", "corp_name", "stock_code", "rcept_dt", "report_nm", "rcept_no",
		"div_type", "div_kind",
		"per_share_common", "per_share_preferred",
		"yield_common", "yield_preferred",
		"total_amount", "record_date", "payment_date",
		"meeting_held", "meeting_date", "board_decision_date",
	}
}

// SnapshotRow renders the record as one CSV snapshot row, aligned with
// SnapshotHeader.
func (r FilingRecord) SnapshotRow() []string {
	return []string{
		r.CorpCode, r.CorpName, r.StockCode, r.ReceiptDate, r.ReportName, r.ReceiptNo,
		r.DivType, r.DivKind,
		r.PerShareCommon, r.PerSharePreferred,
		r.YieldCommon, r.YieldPreferred,
		r.TotalAmount, r.RecordDate, r.PaymentDate,
		r.MeetingHeld, r.MeetingDate, r.BoardDecisionDate,
	}
}
