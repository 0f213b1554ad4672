package types

import "time"

// Analysis is the persisted outcome of one analysis run.
type Analysis struct {
	ID        string    `json:"id" yaml:"id"`
	Version   string    `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Symbol    string    `json:"symbol" yaml:"symbol"`
	DataType  DataType  `json:"data_type" yaml:"data_type"`
	StartDate string    `json:"start_date" yaml:"start_date"`
	EndDate   string    `json:"end_date" yaml:"end_date"`
	// Bars is the number of bars the analysis was computed from.
	Bars      int     `json:"bars" yaml:"bars"`
	LastDate  string  `json:"last_date" yaml:"last_date"`
	LastClose float64 `json:"last_close" yaml:"last_close"`
	// Multiplier is the futures contract size, 1 for other instruments.
	Multiplier float64 `json:"contract_multiplier" yaml:"contract_multiplier"`
	Advice     string  `json:"advice" yaml:"advice"`
	// Analysis is the commentary text. Refined is set when it came from the
	// completion service rather than the template.
	Analysis string            `json:"analysis" yaml:"analysis"`
	Refined  bool              `json:"refined" yaml:"refined"`
	Report   PerformanceReport `json:"report" yaml:"report"`
}
