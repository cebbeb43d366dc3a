package domain

import (
	"time"
)

// Metadata describes one parsed instrument export. A handler assembles
// it during Parse and it is never mutated afterwards; the Loader that
// created it is its sole owner.
//
// Optional fields use their zero value as the absent marker: a zero
// AcquisitionTime means the export carried no usable timestamp, an
// empty TimeColumn means the table has no time axis, and a zero
// SampleRate means the rate is unknown.
type Metadata struct {
	Filename        string            `json:"filename"`
	Equipment       string            `json:"equipment"`
	AcquisitionTime time.Time         `json:"acquisition_time,omitempty"`
	Channels        []string          `json:"channels"`
	TimeColumn      string            `json:"time_column,omitempty"`
	SampleRate      float64           `json:"sample_rate,omitempty"`
	Units           map[string]string `json:"units,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Unit returns the physical unit recorded for a channel, if any.
func (m *Metadata) Unit(channel string) (string, bool) {
	u, ok := m.Units[channel]
	return u, ok
}

// HasAcquisitionTime reports whether the export carried a usable
// acquisition timestamp.
func (m *Metadata) HasAcquisitionTime() bool {
	return !m.AcquisitionTime.IsZero()
}

// HasTimeColumn reports whether a time axis was resolved during parsing.
func (m *Metadata) HasTimeColumn() bool {
	return m.TimeColumn != ""
}
