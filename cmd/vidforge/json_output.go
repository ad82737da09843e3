package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"vidforge/internal/services"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type jsonFailure struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Category string `json:"error_category"`
}

// writeJSONFailure reports err in the same shape commands use on success, so
// scripted callers can always read "success".
func writeJSONFailure(cmd *cobra.Command, err error) error {
	if encErr := writeJSON(cmd, jsonFailure{Error: err.Error(), Category: services.Category(err)}); encErr != nil {
		return encErr
	}
	return errReported
}
