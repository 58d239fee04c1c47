// Package plot renders mnemonic time series as embeddable ECharts fragments.
package plot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"EngDB/internal/domain/models"

	"github.com/google/uuid"
)

const defaultScriptURL = "https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"

var (
	divTmpl = template.Must(template.New("div").Parse(
		`<div id="{{.ID}}" class="engdb-chart" style="width:{{.Width}}px;height:{{.Height}}px;"></div>`))

	scriptTmpl = template.Must(template.New("script").Parse(
		`<script type="text/javascript">
(function () {
  var render = function () {
    var chart = echarts.init(document.getElementById({{.ID}}));
    chart.setOption({{.Option}});
    window.addEventListener("resize", function () { chart.resize(); });
  };
  if (typeof echarts === "undefined") {
    var s = document.createElement("script");
    s.src = {{.ScriptURL}};
    s.onload = render;
    document.head.appendChild(s);
  } else {
    render();
  }
})();
</script>`))
)

// Renderer implements models.ChartRenderer.
type Renderer struct {
	width     int
	height    int
	scriptURL string
	newID     func() string
}

type Option func(*Renderer)

// WithSize sets the chart size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) { r.width, r.height = width, height }
}

// WithScriptURL sets where the ECharts library is loaded from when the host
// page has not loaded it.
func WithScriptURL(u string) Option { return func(r *Renderer) { r.scriptURL = u } }

// WithIDGenerator replaces the random element id source.
func WithIDGenerator(f func() string) Option { return func(r *Renderer) { r.newID = f } }

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:     900,
		height:    400,
		scriptURL: defaultScriptURL,
		newID:     func() string { return "engdb-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the chart container and the script that fills it.
func (r *Renderer) Render(s models.PlotSeries) (models.ChartComponents, error) {
	if len(s.X) != len(s.Y) {
		return models.ChartComponents{}, fmt.Errorf("series length mismatch: %d times, %d values", len(s.X), len(s.Y))
	}
	option, err := json.Marshal(BuildOption(s))
	if err != nil {
		return models.ChartComponents{}, fmt.Errorf("encode chart option: %w", err)
	}

	id := r.newID()
	var div, script bytes.Buffer
	if err := divTmpl.Execute(&div, map[string]interface{}{
		"ID": id, "Width": r.width, "Height": r.height,
	}); err != nil {
		return models.ChartComponents{}, err
	}
	if err := scriptTmpl.Execute(&script, map[string]interface{}{
		"ID":        id,
		"Option":    template.JS(option),
		"ScriptURL": r.scriptURL,
	}); err != nil {
		return models.ChartComponents{}, err
	}
	return models.ChartComponents{Div: div.String(), Script: script.String()}, nil
}

var _ models.ChartRenderer = (*Renderer)(nil)
