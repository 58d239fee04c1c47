package models

// Requests for the mnemonic HTTP endpoints.

type MnemonicRequest struct {
	ID string `param:"id" json:"id" validate:"required,max=64,alphanumunderscore"`
}

type InventoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"100000" validate:"gte=1,lte=1000000"`
}

type TimeseriesRequest struct {
	ID    string `param:"id" json:"id" validate:"required,max=64,alphanumunderscore"`
	Start string `query:"start" json:"start" validate:"required"`
	End   string `query:"end" json:"end" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"5000" validate:"gte=1,lte=1000000"`
}
