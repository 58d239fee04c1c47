package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"EngDB/internal/domain/models"
	drepo "EngDB/internal/domain/repository"
	"EngDB/internal/service/envelope"
	"EngDB/pkg/logger"
	"EngDB/pkg/metrics"
	"EngDB/pkg/util"
)

// EngineeringDB answers mnemonic questions against the engineering database.
// Every call is sequential: one request, one parse, then the next request.
type EngineeringDB struct {
	requester drepo.ServiceRequester
	parser    *envelope.Parser
	logger    *logger.Logger
	metrics   drepo.Metrics
}

func NewEngineeringDB(requester drepo.ServiceRequester, parser *envelope.Parser, l *logger.Logger, m drepo.Metrics) *EngineeringDB {
	if parser == nil {
		parser = envelope.NewParser(l)
	}
	if l == nil {
		l = logger.NewNop()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &EngineeringDB{requester: requester, parser: parser, logger: l, metrics: m}
}

// ListMnemonics fetches the full mnemonic inventory.
func (uc *EngineeringDB) ListMnemonics(ctx context.Context) (*models.Table, models.Object, error) {
	resp, err := uc.requester.Request(ctx, drepo.ServiceInventory, nil)
	if err != nil {
		return nil, nil, err
	}
	table, meta, err := uc.parser.ParseTable(resp)
	if err != nil {
		uc.recordParseError(err)
		return nil, nil, err
	}
	return table, meta, nil
}

// IsValidMnemonic reports whether id is listed in the inventory. Each call
// fetches the inventory again unless the requester caches it.
func (uc *EngineeringDB) IsValidMnemonic(ctx context.Context, id string) (bool, error) {
	table, _, err := uc.ListMnemonics(ctx)
	if err != nil {
		return false, err
	}
	return inventoryHas(table, id), nil
}

func inventoryHas(table *models.Table, id string) bool {
	col, ok := table.Column(models.InventoryNameColumn)
	if !ok {
		return false
	}
	for i, v := range col.Values {
		if col.Mask[i] {
			continue
		}
		if s, ok := v.Str(); ok && s == id {
			return true
		}
	}
	return false
}

// QueryMnemonicInfo returns the dictionary record of id.
func (uc *EngineeringDB) QueryMnemonicInfo(ctx context.Context, id string) (models.MnemonicInfo, error) {
	resp, err := uc.requester.Request(ctx, drepo.ServiceDictionary, map[string]string{"mnemonic": id})
	if err != nil {
		return nil, err
	}
	info, _, err := uc.parser.ParseRecord(resp)
	if err != nil {
		uc.recordParseError(err)
		return nil, err
	}
	return info, nil
}

// QuerySingleMnemonic fetches the time series of id between start and end,
// then its dictionary record. Arguments are checked before any request.
// If the second request fails the fetched series is dropped.
func (uc *EngineeringDB) QuerySingleMnemonic(ctx context.Context, id string, start, end time.Time) (*models.EdbMnemonic, error) {
	if err := validateQuery(id, start, end); err != nil {
		uc.metrics.RecordError("invalid_argument")
		return nil, err
	}

	began := time.Now()
	defer func() { uc.metrics.RecordLatency("query_single_mnemonic", time.Since(began).Seconds()) }()

	resp, err := uc.requester.Request(ctx, drepo.ServiceTimeseries, map[string]string{
		"mnemonic": id,
		"start":    util.ISO(start),
		"end":      util.ISO(end),
	})
	if err != nil {
		return nil, err
	}
	data, meta, err := uc.parser.ParseTable(resp)
	if err != nil {
		uc.recordParseError(err)
		return nil, err
	}

	info, err := uc.QueryMnemonicInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	m := models.NewEdbMnemonic(id, start, end, data, meta, info)
	uc.logger.Debug("mnemonic queried",
		logger.String("mnemonic", id),
		logger.Int("rows", data.Len()),
	)
	return m, nil
}

func validateQuery(id string, start, end time.Time) error {
	if strings.TrimSpace(id) == "" {
		return &models.InvalidArgumentError{Argument: "mnemonic_identifier", Reason: "must be a non-empty string"}
	}
	if start.IsZero() {
		return &models.InvalidArgumentError{Argument: "start", Reason: "must be a timestamp"}
	}
	if end.IsZero() {
		return &models.InvalidArgumentError{Argument: "end", Reason: "must be a timestamp"}
	}
	return nil
}

func (uc *EngineeringDB) recordParseError(err error) {
	switch {
	case errors.Is(err, models.ErrQueryIncomplete):
		uc.metrics.RecordError("query_incomplete")
	case errors.Is(err, models.ErrNoData):
		uc.metrics.RecordError("no_data")
	default:
		uc.metrics.RecordError("decode")
	}
}
