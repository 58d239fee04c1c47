// Package envelope decodes the {status, data, ...} envelope shared by the
// engineering database services.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"EngDB/internal/domain/models"
	drepo "EngDB/internal/domain/repository"
	"EngDB/pkg/logger"
)

// StatusComplete is the only status accepted as success.
const StatusComplete = "COMPLETE"

const dataKey = "data"

// Result holds the parsed payload. Table is set when parsed as a table,
// Record otherwise.
type Result struct {
	Table  *models.Table
	Record models.Object
	Meta   models.Object
}

// Parser validates envelopes and reshapes their data.
type Parser struct {
	logger *logger.Logger
}

func NewParser(l *logger.Logger) *Parser {
	if l == nil {
		l = logger.NewNop()
	}
	return &Parser{logger: l}
}

// Parse checks status, extracts data (as a table or as the first record) and
// collects every other top-level key into Meta.
func (p *Parser) Parse(resp *drepo.RawResponse, asTable bool) (*Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &top); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resp.Service, err)
	}

	status := statusText(top["status"])
	if status != StatusComplete {
		p.logger.Warn("mnemonic query did not complete",
			logger.String("service", resp.Service),
			logger.String("status", status),
		)
		return nil, &models.QueryIncompleteError{Service: resp.Service, Status: status}
	}

	raw, ok := top[dataKey]
	if !ok || isNull(raw) {
		return nil, &models.NoDataError{Service: resp.Service}
	}

	res := &Result{}
	if asTable {
		table, err := decodeTable(raw)
		if err != nil {
			return nil, fmt.Errorf("%s data: %w", resp.Service, err)
		}
		res.Table = table
	} else {
		rec, err := decodeFirstRecord(raw)
		if err != nil {
			if _, empty := err.(emptyDataError); empty {
				return nil, &models.NoDataError{Service: resp.Service}
			}
			return nil, fmt.Errorf("%s data: %w", resp.Service, err)
		}
		res.Record = rec
	}

	meta, err := decodeMeta(top)
	if err != nil {
		return nil, fmt.Errorf("%s meta: %w", resp.Service, err)
	}
	res.Meta = meta
	return res, nil
}

// ParseTable parses resp with data as a table.
func (p *Parser) ParseTable(resp *drepo.RawResponse) (*models.Table, models.Object, error) {
	res, err := p.Parse(resp, true)
	if err != nil {
		return nil, nil, err
	}
	return res.Table, res.Meta, nil
}

// ParseRecord parses resp keeping only the first data element.
func (p *Parser) ParseRecord(resp *drepo.RawResponse) (models.Object, models.Object, error) {
	res, err := p.Parse(resp, false)
	if err != nil {
		return nil, nil, err
	}
	return res.Record, res.Meta, nil
}

func statusText(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeTable turns an array of row objects into a table. An empty array
// gives a table with no rows and no columns.
func decodeTable(raw json.RawMessage) (*models.Table, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("expected an array of rows: %w", err)
	}
	b := models.NewTableBuilder()
	for i, r := range rows {
		keys, obj, err := decodeObject(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		b.AddRow(keys, obj)
	}
	return b.Build(), nil
}

type emptyDataError struct{}

func (emptyDataError) Error() string { return "data is empty" }

func decodeFirstRecord(raw json.RawMessage) (models.Object, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		_, obj, err := decodeObject(trimmed)
		return obj, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("expected an array or object: %w", err)
	}
	if len(rows) == 0 {
		return nil, emptyDataError{}
	}
	_, obj, err := decodeObject(rows[0])
	return obj, err
}

// decodeObject decodes a JSON object keeping its key order.
func decodeObject(raw json.RawMessage) ([]string, models.Object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var keys []string
	obj := make(models.Object)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		val, err := models.FromJSON(v)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = val
	}
	return keys, obj, nil
}

func decodeMeta(top map[string]json.RawMessage) (models.Object, error) {
	meta := make(models.Object, len(top))
	for k, raw := range top {
		if strings.EqualFold(k, dataKey) {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		val, err := models.FromJSON(v)
		if err != nil {
			return nil, err
		}
		meta[k] = val
	}
	return meta, nil
}
