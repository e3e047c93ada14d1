package models

import "time"

// Stock is one row of the stock master table, keyed by symbol.
// Descriptive fields are nullable in the database and carried here as plain
// strings; empty means not known.
type Stock struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	ISIN        string    `json:"isin,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IndexConstituent is a single membership entry parsed from an index
// constituent file.
type IndexConstituent struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	ISIN        string `json:"isin"`
}

// Stock converts a constituent into a stock master row.
func (c IndexConstituent) Stock() Stock {
	return Stock{
		Symbol:      c.Symbol,
		CompanyName: c.CompanyName,
		Industry:    c.Industry,
		ISIN:        c.ISIN,
	}
}
