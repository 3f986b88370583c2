package model

// ResultWriter is a generic interface for delivering window results to a
// sink (ClickHouse, text report, plot files). The core engine never depends
// on an output format; it hands each completed window to whatever writers
// the caller wired up.
type ResultWriter interface {
	// Write persists or renders one window result.
	Write(result *WindowResult) error
}
