package plot

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"EngDB/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID() string { return "engdb-test" }

func extractOption(t *testing.T, script string) map[string]interface{} {
	t.Helper()
	const open = "chart.setOption("
	i := strings.Index(script, open)
	require.GreaterOrEqual(t, i, 0, script)
	rest := script[i+len(open):]
	j := strings.Index(rest, ");\n")
	require.GreaterOrEqual(t, j, 0, script)

	var opt map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(rest[:j]), &opt))
	return opt
}

func sampleMnemonic(info models.MnemonicInfo) *models.EdbMnemonic {
	data := models.NewTable([]string{"MJD", "euvalue"}, []models.Object{
		{"MJD": models.FloatValue(59000.0), "euvalue": models.FloatValue(1.23)},
		{"MJD": models.FloatValue(59000.5), "euvalue": models.FloatValue(1.24)},
	})
	start := time.Date(2020, 5, 31, 0, 0, 0, 0, time.UTC)
	return models.NewEdbMnemonic("SA_ZFGOUTFOV", start, start.Add(24*time.Hour), data, models.Object{}, info)
}

func TestRenderPlot(t *testing.T) {
	m := sampleMnemonic(models.MnemonicInfo{"unit": models.StringValue("deg")})
	div, script, err := m.RenderPlot(NewRenderer(WithIDGenerator(fixedID), WithSize(600, 300)))
	require.NoError(t, err)

	assert.Equal(t, `<div id="engdb-test" class="engdb-chart" style="width:600px;height:300px;"></div>`, div)
	assert.Contains(t, script, `getElementById("engdb-test")`)

	opt := extractOption(t, script)
	xAxis := opt["xAxis"].(map[string]interface{})
	assert.Equal(t, "time", xAxis["type"])
	yAxis := opt["yAxis"].(map[string]interface{})
	assert.Equal(t, "Value (deg)", yAxis["name"])
	assert.Equal(t, "value", yAxis["type"])

	series := opt["series"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "line", series["type"])
	assert.Equal(t, true, series["showSymbol"])
	assert.Equal(t, "dashed", series["lineStyle"].(map[string]interface{})["type"])

	points := series["data"].([]interface{})
	require.Len(t, points, 2)
	first := points[0].([]interface{})
	assert.Equal(t, float64(time.Date(2020, 5, 31, 0, 0, 0, 0, time.UTC).UnixMilli()), first[0])
	assert.Equal(t, 1.23, first[1])

	features := opt["toolbox"].(map[string]interface{})["feature"].(map[string]interface{})
	for _, f := range []string{"dataZoom", "restore", "saveAsImage"} {
		assert.Contains(t, features, f)
	}
	zoom := opt["dataZoom"].([]interface{})
	assert.Equal(t, "inside", zoom[0].(map[string]interface{})["type"])
}

func TestRenderPlotMissingUnit(t *testing.T) {
	m := sampleMnemonic(models.MnemonicInfo{"description": models.StringValue("no unit here")})
	_, _, err := m.RenderPlot(NewRenderer())
	require.ErrorIs(t, err, models.ErrMissingUnit)
}

func TestRenderUniqueIDs(t *testing.T) {
	r := NewRenderer()
	s := models.PlotSeries{Title: "X", Numeric: true}
	a, err := r.Render(s)
	require.NoError(t, err)
	b, err := r.Render(s)
	require.NoError(t, err)
	assert.NotEqual(t, a.Div, b.Div)
	assert.True(t, strings.HasPrefix(a.Div, `<div id="engdb-`))
}

func TestBuildOptionStringValues(t *testing.T) {
	ts := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	opt := BuildOption(models.PlotSeries{
		Title:  "STATE",
		YLabel: "Value (n/a)",
		X:      []time.Time{ts, ts.Add(time.Second)},
		Y:      []models.Value{models.StringValue("ON"), models.Null()},
	})
	assert.Equal(t, "category", opt.YAxis.Type)
	assert.Equal(t, "ON", opt.Series[0].Data[0][1])
	assert.Nil(t, opt.Series[0].Data[1][1])
}

func TestRenderRejectsMismatchedSeries(t *testing.T) {
	_, err := NewRenderer().Render(models.PlotSeries{
		X: []time.Time{time.Now()},
	})
	assert.Error(t, err)
}

func TestRenderEscapesTitle(t *testing.T) {
	c, err := NewRenderer(WithIDGenerator(fixedID)).Render(models.PlotSeries{Title: "</script><b>"})
	require.NoError(t, err)
	assert.NotContains(t, c.Script, "</script><b>")
}
