package repository

import (
	"context"
)

// Service names of the JWST engineering database on MAST.
const (
	ServiceInventory  = "Mast.JwstEdb.Mnemonics"
	ServiceDictionary = "Mast.JwstEdb.Dictionary"
	ServiceTimeseries = "Mast.JwstEdb.GetTimeseries.All"
)

// RawResponse is the undecoded body of one service response.
type RawResponse struct {
	Service string
	Body    []byte
}

// ServiceRequester issues one named service request per call.
type ServiceRequester interface {
	Request(ctx context.Context, service string, params map[string]string) (*RawResponse, error)
}

type Metrics interface {
	RecordRequest(service, outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCacheLookup(hit bool)
}
