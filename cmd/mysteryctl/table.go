package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
)

func renderStatus(st types.GenerationStatus) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRow(table.Row{"Status", string(st.Status)})
	tw.AppendRow(table.Row{"Progress", strconv.Itoa(st.Progress) + "%"})
	tw.AppendRow(table.Row{"Current step", st.CurrentStep})
	resumable := "-"
	if st.Resumable != nil {
		resumable = strconv.FormatBool(*st.Resumable)
	}
	tw.AppendRow(table.Row{"Resumable", resumable})

	names := make([]string, 0, len(st.Sections))
	for name := range st.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		tw.AppendSeparator()
	}
	for _, name := range names {
		mark := "pending"
		if st.Sections[name] {
			mark = "done"
		}
		tw.AppendRow(table.Row{fmt.Sprintf("Section %s", name), mark})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})
	return tw.Render()
}

func renderHistory(rows []*types.GenerationJob) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Job", "Status", "Progress", "Step", "Started", "Completed", "Updated"})
	for _, j := range rows {
		progress := "-"
		if j.Progress != nil {
			progress = strconv.Itoa(*j.Progress) + "%"
		}
		status := j.Status
		if _, ok := j.State(); !ok {
			status = fmt.Sprintf("%q (unrecognized)", j.Status)
		}
		tw.AppendRow(table.Row{
			j.ID.String(),
			status,
			progress,
			j.CurrentStep,
			formatTime(j.StartedAt),
			formatTime(j.CompletedAt),
			j.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	if len(rows) == 0 {
		tw.AppendRow(table.Row{"(no rows)", "", "", "", "", "", ""})
	}
	return tw.Render()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
