package main

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"

	"casequery-backend/models"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// chartRows flattens a chart into (series, label, value) rows sorted by series then label.
// Scalar series get an empty label.
func chartRows(chart models.Chart) [][]string {
	series := make([]string, 0, len(chart))
	for k := range chart {
		series = append(series, k)
	}
	sort.Strings(series)

	var rows [][]string
	for _, s := range series {
		v := reflect.ValueOf(chart[s])
		if v.Kind() != reflect.Map {
			rows = append(rows, []string{s, "", formatValue(chart[s])})
			continue
		}
		labels := make([]string, 0, v.Len())
		values := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			label := fmt.Sprint(iter.Key().Interface())
			labels = append(labels, label)
			values[label] = iter.Value().Interface()
		}
		sort.Strings(labels)
		for _, l := range labels {
			rows = append(rows, []string{s, l, formatValue(values[l])})
		}
	}
	return rows
}

func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// renderAnswer writes the summary and, when present, the chart as a table.
func renderAnswer(w io.Writer, answer models.Answer, useColors bool) error {
	summary := fmt.Sprint
	note := fmt.Sprint
	if useColors {
		switch answer.Status {
		case models.AnswerOK:
			summary = color.New(color.FgGreen, color.Bold).SprintFunc()
		case models.AnswerPending:
			summary = color.New(color.FgYellow).SprintFunc()
		default:
			summary = color.New(color.FgRed).SprintFunc()
		}
		note = color.New(color.FgHiBlack).SprintFunc()
	}

	if _, err := fmt.Fprintln(w, summary(answer.Summary)); err != nil {
		return err
	}
	if answer.Source != "" && answer.Source != models.SourceComputed {
		if _, err := fmt.Fprintln(w, note(fmt.Sprintf("(origem: %s)", answer.Source))); err != nil {
			return err
		}
	}

	rows := chartRows(answer.Chart)
	if len(rows) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Série", "Item", "Valor"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignRight}
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
