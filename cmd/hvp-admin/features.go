package main

import (
	"github.com/spf13/cobra"
	"github.com/tendant/simple-hvp/pkg/hvp"
)

var featuresCmd = &cobra.Command{
	Use:   "features [feature...]",
	Short: "Show which host features the module supports",
	RunE:  runFeatures,
}

type featureRow struct {
	Feature   string      `json:"feature"`
	Supported hvp.Support `json:"supported"`
}

func runFeatures(cmd *cobra.Command, args []string) error {
	features := hvp.KnownFeatures()
	if len(args) > 0 {
		features = features[:0:0]
		for _, arg := range args {
			features = append(features, hvp.Feature(arg))
		}
	}

	result := make([]featureRow, 0, len(features))
	for _, f := range features {
		result = append(result, featureRow{Feature: string(f), Supported: hvp.Supports(f)})
	}

	if structured() {
		return printOutput(out(cmd), result)
	}

	rows := make([][]string, 0, len(result))
	for _, r := range result {
		rows = append(rows, []string{r.Feature, r.Supported.String()})
	}
	printTable(out(cmd), []string{"Feature", "Supported"}, rows)
	return nil
}
