package registry

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrappedXML = `<?xml version="1.0" encoding="UTF-8"?>
<result>
	<status>000</status>
	<message>정상</message>
	<list>
		<item>
			<corp_code>00126380</corp_code>
			<corp_name>삼성전자</corp_name>
			<stock_code>005930</stock_code>
		</item>
		<item>
			<corp_code>00999999</corp_code>
			<corp_name>비상장회사</corp_name>
			<stock_code> </stock_code>
		</item>
	</list>
</result>`

const bareXML = `<?xml version="1.0" encoding="UTF-8"?>
<CORPCODE>
	<item>
		<corp_code>00164742</corp_code>
		<corp_name>현대자동차</corp_name>
		<stock_code>005380</stock_code>
	</item>
</CORPCODE>`

// fakeClient serves canned payloads or errors.
type fakeClient struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeClient) Get(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.payload, f.err
}

func (f *fakeClient) CorpCodeURL() string { return "https://example/corpCode.xml" }

func TestParse_WrappedShape(t *testing.T) {
	companies, err := Parse([]byte(wrappedXML))
	require.NoError(t, err)

	// The blank stock code entry is a non-listed entity and is dropped.
	require.Len(t, companies, 1)
	assert.Equal(t, "00126380", companies[0].CorpCode)
	assert.Equal(t, "삼성전자", companies[0].CorpName)
	assert.Equal(t, "005930", companies[0].StockCode)
}

func TestParse_BareShape(t *testing.T) {
	companies, err := Parse([]byte(bareXML))
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "005380", companies[0].StockCode)
}

func TestParse_SingletonItem(t *testing.T) {
	xml := `<result><status>000</status><list><item>` +
		`<corp_code>00111111</corp_code><corp_name>단독</corp_name><stock_code>123456</stock_code>` +
		`</item></list></result>`

	companies, err := Parse([]byte(xml))
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "00111111", companies[0].CorpCode)
}

func TestParse_ErrorStatus(t *testing.T) {
	xml := `<result><status>010</status><message>등록되지 않은 키입니다.</message></result>`

	_, err := Parse([]byte(xml))
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "010", apiErr.Code)
	assert.Contains(t, apiErr.Message, "등록되지 않은")
}

func TestParse_FiltersMalformedStockCodes(t *testing.T) {
	xml := `<result><list>` +
		`<item><corp_code>1</corp_code><corp_name>a</corp_name><stock_code>00593</stock_code></item>` +
		`<item><corp_code>2</corp_code><corp_name>b</corp_name><stock_code>00593A</stock_code></item>` +
		`<item><corp_code>3</corp_code><corp_name>c</corp_name><stock_code>005935</stock_code></item>` +
		`</list></result>`

	companies, err := Parse([]byte(xml))
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "3", companies[0].CorpCode)
}

func zipPayload(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoad_ZipPayloadIsUnpacked(t *testing.T) {
	client := &fakeClient{payload: zipPayload(t, "CORPCODE.xml", []byte(wrappedXML))}
	path := filepath.Join(t.TempDir(), "corp_code.xml")
	cache := NewCache(client, path, time.Hour)

	companies, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, companies, 1)

	// The extracted XML, not the zip, is what lands on disk.
	cached, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wrappedXML, string(cached))
}

func TestLoad_FreshCacheSkipsRemote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corp_code.xml")
	require.NoError(t, os.WriteFile(path, []byte(wrappedXML), 0o644))

	client := &fakeClient{err: errors.New("should not be called")}
	cache := NewCache(client, path, time.Hour)

	companies, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, companies, 1)
	assert.Equal(t, 0, client.calls)
}

func TestLoad_ForceRefreshBypassesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corp_code.xml")
	require.NoError(t, os.WriteFile(path, []byte(wrappedXML), 0o644))

	client := &fakeClient{payload: []byte(bareXML)}
	cache := NewCache(client, path, time.Hour)

	companies, err := cache.Load(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "00164742", companies[0].CorpCode)
	assert.Equal(t, 1, client.calls)
}

func TestLoad_StaleCacheServedOnRemoteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corp_code.xml")
	require.NoError(t, os.WriteFile(path, []byte(wrappedXML), 0o644))
	// Age the file past the TTL.
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	client := &fakeClient{err: errors.New("connection refused")}
	cache := NewCache(client, path, time.Hour)

	companies, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestLoad_NoCacheNoRemoteFails(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	cache := NewCache(client, filepath.Join(t.TempDir(), "corp_code.xml"), time.Hour)

	_, err := cache.Load(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cache")
}
