// Package cli provides CLI output utilities for Kioku.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kioku/internal/export"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results\n\n", response.Count)
	for i, hit := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Distance: %.4f\n", i+1, hit.Distance)
		fmt.Fprintf(w, "ID: %s\n", hit.ID)
		if source := hit.Metadata["source"]; source != "" {
			fmt.Fprintf(w, "Source: %s\n", source)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(hit.Text, 200))
	}
	return nil
}

// WriteQueryResponse writes a RAG answer with its sources.
func WriteQueryResponse(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%s\n", response.Answer)
	if len(response.Sources) > 0 {
		fmt.Fprintf(w, "\nSources (%d):\n", len(response.Sources))
		for _, src := range response.Sources {
			fmt.Fprintf(w, "  [%.4f] %s\n", src.Distance, utils.Truncate(src.Text, 120))
		}
	}
	fmt.Fprintf(w, "\nModel: %s\n", response.Model)
	return nil
}

// WriteClassifyResponse writes a routing decision.
func WriteClassifyResponse(w io.Writer, response *models.ClassifyResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "%s (confidence: %s)\n", response.Category, response.Confidence)
	return nil
}

// WriteStats writes collection statistics.
func WriteStats(w io.Writer, response *models.StatsResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "Documents:  %d\n", response.TotalDocuments)
	fmt.Fprintf(w, "Collection: %s\n", response.CollectionName)
	if response.DatabasePath != "" {
		fmt.Fprintf(w, "Database:   %s\n", response.DatabasePath)
	}
	return nil
}

// WriteExportStats writes dataset statistics from an export run.
func WriteExportStats(w io.Writer, stats export.Stats) {
	fmt.Fprintf(w, "Total Q&A pairs extracted: %d\n", stats.TotalPairs)
	fmt.Fprintf(w, "Preference-related: %d\n", stats.PreferenceRelated)
	if stats.TotalPairs > 0 {
		fmt.Fprintf(w, "Average user message length: %.0f chars\n", stats.AvgUserLen)
		fmt.Fprintf(w, "Average assistant response length: %.0f chars\n", stats.AvgAssistantLen)
	}
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
