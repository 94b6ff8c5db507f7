package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/presserdigest/internal/domain/metadata"
	"github.com/forPelevin/presserdigest/internal/domain/qa"
	"github.com/forPelevin/presserdigest/internal/domain/transcripts"
	"github.com/forPelevin/presserdigest/internal/types"
	"github.com/forPelevin/presserdigest/internal/usecase"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func renderRunReport(r usecase.Report) string {
	rows := [][]string{
		{"videos found", strconv.Itoa(r.VideosFound)},
		{"transcripts", fmt.Sprintf("%d (cached %d, asr %d)", r.TranscriptsOK, r.TranscriptsCached, r.TranscriptsASR)},
		{"no captions", strconv.Itoa(r.NoCaptions)},
		{"transcript failures", strconv.Itoa(r.TranscriptFailures)},
		{"scoring batches", fmt.Sprintf("%d (%d failed)", r.Batches, r.FailedBatches)},
		{"candidates", strconv.Itoa(r.Candidates)},
		{"validated", strconv.Itoa(r.Validated)},
	}
	reasons := make([]string, 0, len(r.Rejected))
	for reason := range r.Rejected {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, []string{"rejected " + strings.ToLower(reason), strconv.Itoa(r.Rejected[types.RejectReason(reason)])})
	}
	rows = append(rows,
		[]string{"dedup groups", fmt.Sprintf("%d (%d merged)", r.DedupGroups, r.Deduplicated)},
		[]string{"selected", strconv.Itoa(r.Selected)},
		[]string{"planned runtime", transcripts.Clock(r.PlannedSeconds)},
		[]string{"clips rendered", fmt.Sprintf("%d (%d failed)", r.ClipsRendered, r.ClipsFailed)},
	)
	return renderTable([]string{"Stage", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderPlan(p types.DigestPlan) string {
	rows := make([][]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Team,
			e.SourceVideoID,
			transcripts.Clock(e.StartSeconds) + "-" + transcripts.Clock(e.EndSeconds),
			strconv.Itoa(e.DurationSeconds) + "s",
			strconv.FormatFloat(e.NewsworthinessScore, 'f', -1, 64),
			clip(firstNonEmpty(e.Headline, e.TopicSummary), 48),
		})
	}
	out := renderTable(
		[]string{"#", "Team", "Video", "Range", "Len", "Score", "Headline"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
	return fmt.Sprintf("plan %s: %d clips, %s total\n%s", p.ID, len(p.Entries), transcripts.Clock(p.TotalSeconds), out)
}

// renderQAReport is the plain-text review sheet written next to the digest.
func renderQAReport(r qa.Results, md *metadata.Metadata) string {
	var b strings.Builder
	status := "PASSED"
	if !r.AllPassed {
		status = "NEEDS REVIEW"
	}
	fmt.Fprintf(&b, "QA: %s (%d clips)\n\n", status, r.Clips)

	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		res := "ok"
		if !c.Passed {
			res = "fail"
		}
		kind := "warn"
		if c.Blocking {
			kind = "block"
		}
		rows = append(rows, []string{c.Name, kind, res, strconv.Itoa(len(c.Findings))})
	}
	b.WriteString(renderTable([]string{"Check", "Kind", "Result", "Findings"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
	b.WriteString("\n")

	if len(r.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	if md != nil {
		fmt.Fprintf(&b, "\nTitle: %s\nDuration: %s\n\n%s\n", md.Title, md.TotalDurationFormatted, md.Description)
	}
	return b.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
