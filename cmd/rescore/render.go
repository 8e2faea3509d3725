package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/MikeSquared-Agency/Tender/internal/batch"
	"github.com/MikeSquared-Agency/Tender/internal/catalog"
	"github.com/MikeSquared-Agency/Tender/internal/scoring"
	"github.com/MikeSquared-Agency/Tender/internal/store"
)

func renderBatch(w io.Writer, res *batch.Result, responses []*store.Response, sets map[uuid.UUID]*store.ScoreSet, behavior catalog.FailBehavior) {
	failed := make(map[uuid.UUID]string, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.ResponseID] = f.Error
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Supplier", "Response", "Status", "Total", "Failed Must-Haves", "Overrides", "Error"})
	for _, r := range responses {
		if msg, ok := failed[r.ID]; ok {
			t.AppendRow(table.Row{r.SupplierName, r.ID, "failed", "", "", "", msg})
			continue
		}
		set, ok := sets[r.ID]
		if !ok {
			t.AppendRow(table.Row{r.SupplierName, r.ID, "missing", "", "", "", ""})
			continue
		}
		sum := scoring.Summarize(set.Scores, behavior)
		status := "scored"
		if sum.Disqualified {
			status = "disqualified"
		}
		t.AppendRow(table.Row{r.SupplierName, r.ID, status, fmt.Sprintf("%.2f", sum.WeightedTotal), sum.FailedMustHaves, sum.Overridden, ""})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d/%d ok", res.SuccessCount, res.TotalSuppliers), "", "", "", res.Duration.Round(time.Millisecond).String()})
	t.Render()
}

func renderScores(w io.Writer, set *store.ScoreSet, behavior catalog.FailBehavior) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Requirement", "Type", "Weight", "Raw", "Weighted", "Must-Have", "Method", "Override"})
	for _, rs := range set.Scores {
		mustHave := ""
		if rs.MustHave {
			mustHave = "yes"
			if rs.AutoScore.FailedMustHave {
				mustHave = "FAILED"
			}
		}
		override := ""
		if o := rs.BuyerOverride; o != nil {
			override = fmt.Sprintf("%.2f", o.OverrideScore)
			if o.OverrideReason != "" {
				override += " (" + o.OverrideReason + ")"
			}
		}
		t.AppendRow(table.Row{
			rs.RequirementID,
			rs.ScoringType,
			fmt.Sprintf("%.0f%%", rs.Weight),
			fmt.Sprintf("%.2f", rs.AutoScore.RawScore),
			fmt.Sprintf("%.2f", rs.AutoScore.WeightedScore),
			mustHave,
			rs.AutoScore.Method,
			override,
		})
	}
	sum := scoring.Summarize(set.Scores, behavior)
	total := fmt.Sprintf("%.2f", sum.WeightedTotal)
	if sum.Disqualified {
		total += " (disqualified)"
	}
	t.AppendFooter(table.Row{"Total", "", "", "", total, "", "", ""})
	t.Render()
}

func renderActivity(w io.Writer, events []*store.ActivityEvent) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"When", "Kind", "Response", "Details"})
	for _, e := range events {
		response := ""
		if e.ResponseID != nil {
			response = e.ResponseID.String()
		}
		t.AppendRow(table.Row{e.CreatedAt.Format(time.RFC3339), e.Kind, response, formatDetails(e.Details)})
	}
	t.Render()
}

func formatDetails(d map[string]interface{}) string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, d[k]))
	}
	return strings.Join(parts, " ")
}
