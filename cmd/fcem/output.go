package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/go-fcem/internal/domain"
)

// scoredEntity is one KPI, category or goal of an evaluated row.
type scoredEntity struct {
	Name     string    `json:"name"`
	Scores   []float64 `json:"scores"`
	Dominant string    `json:"dominant"`
}

// rowReport is the JSON form of one domain.Evaluation. Labels names the
// category and goal scores.
type rowReport struct {
	Row        int            `json:"row"`
	Labels     []string       `json:"labels"`
	KPIs       []scoredEntity `json:"kpis"`
	Categories []scoredEntity `json:"categories"`
	Goals      []scoredEntity `json:"goals"`
}

// newReport renders evals. Each KPI's dominant label is named from that KPI's
// own labels; category and goal scores use cfg.LabelNames.
func newReport(cfg domain.Config, evals []domain.Evaluation) []rowReport {
	labels := cfg.LabelNames()

	kpiNames := make([]string, len(cfg.KPIs))
	kpiLabels := make([][]string, len(cfg.KPIs))
	for i, k := range cfg.KPIs {
		kpiNames[i] = k.Name
		kpiLabels[i] = make([]string, len(k.Labels))
		for j, l := range k.Labels {
			kpiLabels[i][j] = l.Name
		}
	}
	catNames := make([]string, len(cfg.Categories))
	for i, c := range cfg.Categories {
		catNames[i] = c.Name
	}
	goalNames := make([]string, len(cfg.Goals))
	for i, g := range cfg.Goals {
		goalNames[i] = g.Name
	}

	sharedLabels := func(int) []string { return labels }
	kpiLabelsAt := func(i int) []string {
		if i < len(kpiLabels) {
			return kpiLabels[i]
		}
		return nil
	}

	out := make([]rowReport, len(evals))
	for i, eval := range evals {
		out[i] = rowReport{
			Row:        i,
			Labels:     labels,
			KPIs:       scored(kpiNames, kpiLabelsAt, eval.KPIs),
			Categories: scored(catNames, sharedLabels, eval.Categories),
			Goals:      scored(goalNames, sharedLabels, eval.Goals),
		}
	}
	return out
}

func scored(names []string, labelsAt func(int) []string, scores [][]float64) []scoredEntity {
	out := make([]scoredEntity, len(scores))
	for i, s := range scores {
		e := scoredEntity{Scores: s}
		if i < len(names) {
			e.Name = names[i]
		}
		labels := labelsAt(i)
		if best := domain.DominantLabel(s); best >= 0 && best < len(labels) {
			e.Dominant = labels[best]
		}
		out[i] = e
	}
	return out
}

// writeOutput encodes report as indented JSON to path, or to stdout for "-".
func writeOutput(path string, stdout io.Writer, report []rowReport) (err error) {
	w := stdout
	if path != "-" {
		f, ferr := os.Create(filepath.Clean(path))
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
