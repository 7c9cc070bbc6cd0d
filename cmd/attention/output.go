package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/elockenvitz/tesseract/internal/domain/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderFeed(w io.Writer, feed model.Feed) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s, last %dh", feed.UserID, feed.WindowHours))
	tw.AppendHeader(table.Row{"Section", "Score", "Severity", "Reason", "Title", "Attention ID"})
	for _, it := range feed.Sections.Flatten() {
		tw.AppendRow(table.Row{it.AttentionType, fmt.Sprintf("%.1f", it.Score), it.Severity, it.ReasonCode, it.Title, it.AttentionID})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "Total", feed.Counts.Total})
	tw.Render()
}

func renderBoard(w io.Writer, board model.Board) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if board.PortfolioID != "" {
		tw.SetTitle("portfolio " + board.PortfolioID)
	}
	tw.AppendHeader(table.Row{"Band", "Severity", "Type", "Title", "Age", "Action", "ID"})
	for _, band := range [][]model.DashboardItem{board.Now, board.Soon, board.Aware} {
		for _, it := range band {
			tw.AppendRow(table.Row{it.Band, it.Severity, it.Type, it.Title, fmt.Sprintf("%dd", it.AgeDays), it.PrimaryAction.Label, it.ID})
		}
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "Suppressed", board.Summaries.Suppressed})
	tw.Render()
}
