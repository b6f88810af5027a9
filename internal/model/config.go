package model

import (
	"errors"
	"fmt"
)

const (
	DefaultStatusField    = "CASE_STATUS"
	DefaultAcceptedStatus = "CERTIFIED"
	DefaultTopK           = 10

	// CountColumn is the header of the count column in every output table
	CountColumn = "NUMBER_CERTIFIED_APPLICATIONS"
	// PercentageColumn is the header of the share column in every output table
	PercentageColumn = "PERCENTAGE"
)

// OutputSpec binds a counted field to the file its top values are written to
type OutputSpec struct {
	Field       string `json:"field"`        // input column to count, e.g. SOC_NAME
	ValueColumn string `json:"value_column"` // first header cell of the output, e.g. TOP_OCCUPATIONS
	Path        string `json:"path"`         // empty when the caller only wants the ranked entries
}

// Config is everything a single run needs
type Config struct {
	InputPath      string              `json:"input_path"`
	Outputs        []OutputSpec        `json:"outputs"`
	StatusField    string              `json:"status_field"`
	AcceptedStatus string              `json:"accepted_status"`
	TopK           int                 `json:"top_k"`
	Aliases        map[string][]string `json:"aliases,omitempty"` // canonical field -> alternate header names
}

// DefaultAliases lists header names used by older H-1B disclosure files.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		"CASE_STATUS":    {"STATUS", "LCA_CASE_STATUS"},
		"SOC_NAME":       {"LCA_CASE_SOC_NAME", "SOC_TITLE"},
		"WORKSITE_STATE": {"LCA_CASE_WORKLOC1_STATE", "WORKSITE_STATE_1", "WORKLOC1_STATE"},
	}
}

// DefaultConfig returns the occupation/state configuration with empty paths.
func DefaultConfig() Config {
	return Config{
		Outputs: []OutputSpec{
			{Field: "SOC_NAME", ValueColumn: "TOP_OCCUPATIONS"},
			{Field: "WORKSITE_STATE", ValueColumn: "TOP_STATES"},
		},
		StatusField:    DefaultStatusField,
		AcceptedStatus: DefaultAcceptedStatus,
		TopK:           DefaultTopK,
		Aliases:        DefaultAliases(),
	}
}

// Fields returns the counted field names in output order.
func (c Config) Fields() []string {
	fields := make([]string, 0, len(c.Outputs))
	for _, o := range c.Outputs {
		fields = append(fields, o.Field)
	}
	return fields
}

// Validate checks the configuration before any input is read.
func (c Config) Validate() error {
	if c.StatusField == "" {
		return errors.New("status field is required")
	}
	if len(c.Outputs) == 0 {
		return errors.New("at least one output is required")
	}
	if c.TopK < 0 {
		return fmt.Errorf("top k must be >= 0, got %d", c.TopK)
	}
	seenField := make(map[string]bool)
	seenPath := make(map[string]bool)
	for i, o := range c.Outputs {
		if o.Field == "" {
			return fmt.Errorf("output %d: field is required", i)
		}
		if o.ValueColumn == "" {
			return fmt.Errorf("output %d: value column is required", i)
		}
		if seenField[o.Field] {
			return fmt.Errorf("output %d: field %s counted twice", i, o.Field)
		}
		seenField[o.Field] = true
		if o.Path != "" {
			if seenPath[o.Path] {
				return fmt.Errorf("output %d: path %s used twice", i, o.Path)
			}
			seenPath[o.Path] = true
		}
	}
	return nil
}
