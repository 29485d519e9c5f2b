package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/internal/w9"
)

var parseW9Cmd = &cobra.Command{
	Use:   "parse-w9 <text-file|->",
	Short: "Extract W-9 fields from OCR text and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		res := w9.Parse(string(raw))
		tinType, last4 := w9.TIN(res.Fields)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			w9.ParseResult
			TinType  string `json:"tinType,omitempty"`
			TinLast4 string `json:"tinLast4,omitempty"`
		}{res, tinType, last4})
	},
}
