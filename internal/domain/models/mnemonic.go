package models

import (
	"fmt"
	"time"

	"EngDB/pkg/util"
)

// Column names of the timeseries service.
const (
	ColumnMJD     = "MJD"
	ColumnEUValue = "euvalue"
	// InventoryNameColumn holds mnemonic names in the inventory table.
	InventoryNameColumn = "tlmMnemonic"
)

// MnemonicInfo describes a mnemonic's static attributes (unit, description,
// category, ...). Only "unit" is relied upon.
type MnemonicInfo = Object

// EdbMnemonic holds the result of a single mnemonic timeseries query.
type EdbMnemonic struct {
	id    string
	start time.Time
	end   time.Time
	data  *Table
	meta  Object
	info  MnemonicInfo
}

// NewEdbMnemonic assigns the record fields as given, without validation.
func NewEdbMnemonic(id string, start, end time.Time, data *Table, meta Object, info MnemonicInfo) *EdbMnemonic {
	return &EdbMnemonic{id: id, start: start, end: end, data: data, meta: meta, info: info}
}

func (m *EdbMnemonic) Identifier() string   { return m.id }
func (m *EdbMnemonic) StartTime() time.Time { return m.start }
func (m *EdbMnemonic) EndTime() time.Time   { return m.end }
func (m *EdbMnemonic) Data() *Table         { return m.data }
func (m *EdbMnemonic) Meta() Object         { return m.meta }
func (m *EdbMnemonic) Info() MnemonicInfo   { return m.info }

// Describe returns a one-line summary of the record.
func (m *EdbMnemonic) Describe() string {
	return fmt.Sprintf("EdbMnemonic %s with %d records between %s and %s",
		m.id, m.data.Len(), util.ISOT(m.start), util.ISOT(m.end))
}

func (m *EdbMnemonic) String() string { return m.Describe() }

// Unit returns info["unit"] rendered as text.
func (m *EdbMnemonic) Unit() (string, error) {
	v, ok := m.info.Get("unit")
	if !ok {
		return "", &MissingUnitError{Mnemonic: m.id}
	}
	return v.String(), nil
}

// Times returns the MJD column converted to UTC times.
func (m *EdbMnemonic) Times() ([]time.Time, error) {
	col, ok := m.data.Column(ColumnMJD)
	if !ok {
		return nil, fmt.Errorf("%s: no %s column", m.id, ColumnMJD)
	}
	mjd, err := col.Floats()
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(mjd))
	for i, d := range mjd {
		out[i] = util.MJDToTime(d)
	}
	return out, nil
}

// Values returns the euvalue column. It may hold numbers or strings.
func (m *EdbMnemonic) Values() (*Column, error) {
	col, ok := m.data.Column(ColumnEUValue)
	if !ok {
		return nil, fmt.Errorf("%s: no %s column", m.id, ColumnEUValue)
	}
	return col, nil
}

// InterpolateOptions is reserved for value-at-time interpolation.
type InterpolateOptions struct {
	Method string
}

// Interpolate is not implemented and always fails.
func (m *EdbMnemonic) Interpolate(times []time.Time, opts InterpolateOptions) (*Table, error) {
	return nil, &UnsupportedOperationError{Op: "EdbMnemonic.Interpolate"}
}

// PlotSeries is the data a chart of the record is drawn from.
type PlotSeries struct {
	Title  string
	XLabel string
	YLabel string
	X      []time.Time
	Y      []Value
	// Numeric is true when every Y value is a number.
	Numeric bool
}

// ChartComponents are the embeddable fragments of a rendered chart.
type ChartComponents struct {
	Div    string `json:"div"`
	Script string `json:"script"`
}

// ChartRenderer serializes a series into embeddable fragments.
type ChartRenderer interface {
	Render(s PlotSeries) (ChartComponents, error)
}

// PlotSeries prepares euvalue against time. The y label needs info["unit"].
func (m *EdbMnemonic) PlotSeries() (PlotSeries, error) {
	unit, err := m.Unit()
	if err != nil {
		return PlotSeries{}, err
	}
	x, err := m.Times()
	if err != nil {
		return PlotSeries{}, err
	}
	col, err := m.Values()
	if err != nil {
		return PlotSeries{}, err
	}
	return PlotSeries{
		Title:   m.id,
		XLabel:  "Time",
		YLabel:  fmt.Sprintf("Value (%s)", unit),
		X:       x,
		Y:       col.Values,
		Numeric: col.Type == ColumnInt || col.Type == ColumnFloat,
	}, nil
}

// RenderPlot draws euvalue against time with r and returns (div, script).
func (m *EdbMnemonic) RenderPlot(r ChartRenderer) (div, script string, err error) {
	s, err := m.PlotSeries()
	if err != nil {
		return "", "", err
	}
	c, err := r.Render(s)
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", m.id, err)
	}
	return c.Div, c.Script, nil
}
