package models

// Printer is a print queue reported by the spooler.
type Printer struct {
	ID          string `json:"printer"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
