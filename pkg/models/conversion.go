package models

// Conversion is the result of converting an amount between two currencies.
type Conversion struct {
	ConvertedAmount float64 `json:"converted_amount"`
}
