package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

// column is one table column; numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

var (
	historyColumns = []column{
		{title: "Time"},
		{title: "Roll No", numeric: true},
		{title: "Name"},
		{title: "Confidence", numeric: true},
		{title: "Session"},
		{title: "Status"},
	}
	lectureColumns = []column{
		{title: "Code"},
		{title: "Title"},
	}
)

// renderTable draws rows in a rounded box with headers as written. Short
// rows are padded, extra cells are ignored.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		header = append(header, c.title)
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

func historyRows(entries []scanner.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.At.Format("15:04:05"),
			e.RollNo,
			e.Name,
			fmt.Sprintf("%.1f%%", e.Confidence*100),
			fmt.Sprintf("%s/%d", e.Lecture, e.Slot),
			e.Status,
		})
	}
	return rows
}

// printLectures returns the catalogue table followed by the slot range.
func printLectures(cat config.CatalogueConfig) string {
	rows := make([][]string, 0, len(cat.Lectures))
	for _, l := range cat.Lectures {
		rows = append(rows, []string{l.Code, l.Title})
	}
	return fmt.Sprintf("%s\nSlots: 1-%d", renderTable(lectureColumns, rows), cat.Slots)
}
