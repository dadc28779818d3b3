package corpus

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartlab/divcollect/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "dividend_with_text.jsonl"), filepath.Join(dir, "dividend_with_text.csv"))
}

func record(receiptNo string) model.FilingRecord {
	return model.FilingRecord{
		CorpCode:       "00126380",
		CorpName:       "삼성전자",
		StockCode:      "005930",
		ReceiptDate:    "20240130",
		ReportName:     "현금ㆍ현물배당결정",
		ReceiptNo:      receiptNo,
		HTML:           "<html>본문</html>",
		DividendFields: model.AllMissing(),
	}
}

func TestSeenReceipts_EmptyWhenNoLog(t *testing.T) {
	seen, err := testStore(t).SeenReceipts()
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestAppendThenSeen(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Append([]model.FilingRecord{record("r1"), record("r2")}))
	require.NoError(t, s.Append([]model.FilingRecord{record("r3")}))

	seen, err := s.SeenReceipts()
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	_, ok := seen["r2"]
	assert.True(t, ok)
}

func TestSeenReceipts_SkipsMalformedLines(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Append([]model.FilingRecord{record("r1")}))

	f, err := os.OpenFile(s.logPath, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, s.Append([]model.FilingRecord{record("r2")}))

	seen, err := s.SeenReceipts()
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

func TestWriteSnapshot_FreshFileHasHeader(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.WriteSnapshot([]model.FilingRecord{record("r1")}))

	f, err := os.Open(s.snapshotPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.SnapshotHeader(), rows[0])
	assert.Equal(t, "r1", rows[1][5])
}

func TestWriteSnapshot_MergesByConcatenation(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.WriteSnapshot([]model.FilingRecord{record("r1")}))
	require.NoError(t, s.WriteSnapshot([]model.FilingRecord{record("r2"), record("r3")}))

	f, err := os.Open(s.snapshotPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	// One header plus three data rows; the second write kept the first
	// write's rows intact.
	require.Len(t, rows, 4)
	assert.Equal(t, "r1", rows[1][5])
	assert.Equal(t, "r2", rows[2][5])
	assert.Equal(t, "r3", rows[3][5])
}

func TestWriteSnapshot_RepairsMissingTrailingNewline(t *testing.T) {
	s := testStore(t)
	require.NoError(t, os.WriteFile(s.snapshotPath, []byte("a,b,c"), 0o644))

	require.NoError(t, s.WriteSnapshot([]model.FilingRecord{record("r1")}))

	data, err := os.ReadFile(s.snapshotPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "a,b,c", lines[0])
}

func TestAppend_NothingToDo(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Append(nil))
	require.NoError(t, s.WriteSnapshot(nil))

	_, err := os.Stat(s.logPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.snapshotPath)
	assert.True(t, os.IsNotExist(err))
}
