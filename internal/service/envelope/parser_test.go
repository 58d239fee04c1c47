package envelope

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"EngDB/internal/domain/models"
	drepo "EngDB/internal/domain/repository"
	"EngDB/pkg/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(service, body string) *drepo.RawResponse {
	return &drepo.RawResponse{Service: service, Body: []byte(body)}
}

func TestParseTimeseriesTable(t *testing.T) {
	p := NewParser(nil)
	body := `{"status":"COMPLETE","msg":"","paging":{"page":1,"pageSize":50000},
		"data":[{"MJD":59000.0,"euvalue":1.23},{"MJD":59000.1,"euvalue":1.24}]}`

	table, meta, err := p.ParseTable(raw(drepo.ServiceTimeseries, body))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	if diff := cmp.Diff([]string{"MJD", "euvalue"}, table.ColumnNames()); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}

	mjd, ok := table.Column("MJD")
	require.True(t, ok)
	assert.Equal(t, models.ColumnFloat, mjd.Type)
	got, err := mjd.Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{59000.0, 59000.1}, got)

	eu, _ := table.Column("euvalue")
	vals, err := eu.Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.23, 1.24}, vals)

	assert.Equal(t, []string{"msg", "paging", "status"}, meta.Keys())
	status, _ := meta["status"].Str()
	assert.Equal(t, "COMPLETE", status)
	assert.Equal(t, models.KindObject, meta["paging"].Kind())
}

func TestParseTableColumnUnionAndMask(t *testing.T) {
	p := NewParser(nil)
	body := `{"status":"COMPLETE","data":[{"a":1,"b":"x"},{"a":2.5,"c":true}]}`

	table, _, err := p.ParseTable(raw("svc", body))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, table.ColumnNames())
	a, _ := table.Column("a")
	assert.Equal(t, models.ColumnFloat, a.Type)
	b, _ := table.Column("b")
	assert.Equal(t, models.ColumnString, b.Type)
	assert.Equal(t, []bool{false, true}, b.Mask)
	c, _ := table.Column("c")
	assert.Equal(t, models.ColumnBool, c.Type)
	assert.Equal(t, []bool{true, false}, c.Mask)
	assert.Equal(t, models.Object{"a": models.IntValue(1), "b": models.StringValue("x")}, table.Row(0))
}

func TestParseInventoryStringColumn(t *testing.T) {
	p := NewParser(nil)
	body := `{"status":"COMPLETE","data":[{"tlmMnemonic":"SA_ZFGOUTFOV","tlmIdentifier":1}]}`

	table, _, err := p.ParseTable(raw(drepo.ServiceInventory, body))
	require.NoError(t, err)
	col, ok := table.Column(models.InventoryNameColumn)
	require.True(t, ok)
	assert.Equal(t, models.ColumnString, col.Type)
	id, _ := table.Column("tlmIdentifier")
	assert.Equal(t, models.ColumnInt, id.Type)
}

func TestParseRecord(t *testing.T) {
	p := NewParser(nil)
	body := `{"status":"COMPLETE","data":[{"unit":"deg"},{"unit":"ignored"}]}`

	rec, meta, err := p.ParseRecord(raw(drepo.ServiceDictionary, body))
	require.NoError(t, err)
	assert.Equal(t, models.Object{"unit": models.StringValue("deg")}, rec)
	assert.Len(t, meta, 1)
}

func TestParseRecordAcceptsSingleObject(t *testing.T) {
	rec, _, err := NewParser(nil).ParseRecord(raw("svc", `{"status":"COMPLETE","data":{"unit":"V"}}`))
	require.NoError(t, err)
	assert.Equal(t, models.Object{"unit": models.StringValue("V")}, rec)
}

func TestParseIncompleteStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewParser(logger.NewWriter(&buf, zerolog.WarnLevel))

	for _, body := range []string{
		`{"status":"EXECUTING","data":[{"a":1}]}`,
		`{"status":"ERROR"}`,
		`{"data":[]}`,
	} {
		_, err := p.Parse(raw("svc", body), true)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrQueryIncomplete)
		var qe *models.QueryIncompleteError
		require.True(t, errors.As(err, &qe))
	}
	assert.True(t, strings.Contains(buf.String(), `"status":"EXECUTING"`), buf.String())
}

func TestParseMissingData(t *testing.T) {
	p := NewParser(nil)
	for _, asTable := range []bool{true, false} {
		_, err := p.Parse(raw("svc", `{"status":"COMPLETE","msg":"nothing"}`), asTable)
		assert.ErrorIs(t, err, models.ErrNoData)

		_, err = p.Parse(raw("svc", `{"status":"COMPLETE","data":null}`), asTable)
		assert.ErrorIs(t, err, models.ErrNoData)
	}

	_, err := p.Parse(raw("svc", `{"status":"COMPLETE","data":[]}`), false)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestParseEmptyTable(t *testing.T) {
	table, _, err := NewParser(nil).ParseTable(raw("svc", `{"status":"COMPLETE","data":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.ColumnNames())
}

func TestMetaNeverContainsData(t *testing.T) {
	body := `{"status":"COMPLETE","data":[{"a":1}],"Data":"x","DATA":1,"dataset":"kept"}`
	res, err := NewParser(nil).Parse(raw("svc", body), true)
	require.NoError(t, err)
	for k := range res.Meta {
		assert.False(t, strings.EqualFold(k, "data"), "meta has key %q", k)
	}
	_, ok := res.Meta["dataset"]
	assert.True(t, ok)
}

func TestParseMalformedBody(t *testing.T) {
	_, err := NewParser(nil).Parse(raw("svc", `<html>oops`), true)
	require.Error(t, err)

	_, err = NewParser(nil).Parse(raw("svc", `{"status":"COMPLETE","data":[1,2]}`), true)
	require.Error(t, err)
}
