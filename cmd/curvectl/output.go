package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	curve "papertrader/internal/domain/entity/curve"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

type curveRow struct {
	Timestamp        string `csv:"timestamp" json:"timestamp"`
	AccountID        int64  `csv:"account_id" json:"account_id"`
	Account          string `csv:"account" json:"account"`
	Cash             string `csv:"cash" json:"cash"`
	PositionsValue   string `csv:"positions_value" json:"positions_value"`
	TotalAssets      string `csv:"total_assets" json:"total_assets"`
	Profit           string `csv:"profit" json:"profit"`
	ProfitPercentage string `csv:"profit_percentage" json:"profit_percentage"`
	Active           bool   `csv:"active" json:"active"`
}

func toRows(points []curve.Point) []*curveRow {
	rows := make([]*curveRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, &curveRow{
			Timestamp:        p.Timestamp.UTC().Format(time.RFC3339),
			AccountID:        p.AccountID,
			Account:          p.AccountName,
			Cash:             p.Cash.StringFixed(2),
			PositionsValue:   p.PositionsValue.StringFixed(2),
			TotalAssets:      p.TotalAssets.StringFixed(2),
			Profit:           p.Profit.StringFixed(2),
			ProfitPercentage: p.ProfitPercentage.StringFixed(2),
			Active:           p.IsActive,
		})
	}
	return rows
}

func render(w io.Writer, format string, points []curve.Point) error {
	rows := toRows(points)
	switch format {
	case formatTable:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Time", "ID", "Account", "Cash", "Positions", "Total", "Profit", "Profit %"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		for _, r := range rows {
			table.Append([]string{
				r.Timestamp, strconv.FormatInt(r.AccountID, 10), r.Account,
				r.Cash, r.PositionsValue, r.TotalAssets, r.Profit, r.ProfitPercentage,
			})
		}
		table.Render()
		return nil
	case formatCSV:
		return gocsv.Marshal(&rows, w)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		return fmt.Errorf("unknown format %q (want table, csv or json)", format)
	}
}
