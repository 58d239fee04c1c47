package plot

import (
	"EngDB/internal/domain/models"
)

// ChartOption is the subset of the ECharts option document the renderer emits.
type ChartOption struct {
	Title    Title      `json:"title"`
	Tooltip  Tooltip    `json:"tooltip"`
	Toolbox  Toolbox    `json:"toolbox"`
	DataZoom []DataZoom `json:"dataZoom"`
	XAxis    Axis       `json:"xAxis"`
	YAxis    Axis       `json:"yAxis"`
	Series   []Series   `json:"series"`
}

type Title struct {
	Text string `json:"text"`
}

type Tooltip struct {
	Trigger string `json:"trigger"`
}

type Toolbox struct {
	Feature map[string]interface{} `json:"feature"`
}

type DataZoom struct {
	Type       string `json:"type"`
	XAxisIndex int    `json:"xAxisIndex"`
}

type Axis struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	NameLocation string `json:"nameLocation"`
	Scale        bool   `json:"scale,omitempty"`
}

type LineStyle struct {
	Type string `json:"type"`
}

type Series struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	ShowSymbol bool             `json:"showSymbol"`
	Symbol     string           `json:"symbol"`
	SymbolSize int              `json:"symbolSize"`
	LineStyle  LineStyle        `json:"lineStyle"`
	Data       [][2]interface{} `json:"data"`
}

// BuildOption lays out a dashed line with point markers over a time axis,
// with box zoom, wheel/drag pan, reset and save-as-image tools.
func BuildOption(s models.PlotSeries) ChartOption {
	yType := "value"
	if !s.Numeric {
		yType = "category"
	}

	data := make([][2]interface{}, len(s.X))
	for i, t := range s.X {
		data[i] = [2]interface{}{t.UnixMilli(), yPoint(s.Y[i], s.Numeric)}
	}

	return ChartOption{
		Title:   Title{Text: s.Title},
		Tooltip: Tooltip{Trigger: "axis"},
		Toolbox: Toolbox{Feature: map[string]interface{}{
			"dataZoom":    map[string]string{"yAxisIndex": "none"},
			"restore":     struct{}{},
			"saveAsImage": struct{}{},
		}},
		DataZoom: []DataZoom{
			{Type: "inside", XAxisIndex: 0},
			{Type: "slider", XAxisIndex: 0},
		},
		XAxis: Axis{Type: "time", Name: s.XLabel, NameLocation: "middle"},
		YAxis: Axis{Type: yType, Name: s.YLabel, NameLocation: "middle", Scale: s.Numeric},
		Series: []Series{{
			Name:       s.Title,
			Type:       "line",
			ShowSymbol: true,
			Symbol:     "circle",
			SymbolSize: 6,
			LineStyle:  LineStyle{Type: "dashed"},
			Data:       data,
		}},
	}
}

func yPoint(v models.Value, numeric bool) interface{} {
	if v.IsNull() {
		return nil
	}
	if numeric {
		if f, ok := v.Float(); ok {
			return f
		}
	}
	return v.String()
}
