package application

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/internal/domain"
)

// Supported report encodings.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// Report collects the results of one Run. Each map is keyed by the ID of
// the unit that produced the entry.
type Report struct {
	Name        string `json:"name" yaml:"name"`
	ExecutionID string `json:"execution_id" yaml:"execution_id"`

	// Groups, Negatives and Positives describe the pooled input.
	Groups    int `json:"groups" yaml:"groups"`
	Negatives int `json:"negatives" yaml:"negatives"`
	Positives int `json:"positives" yaml:"positives"`

	PartialCM map[string]*domain.PartialConfusion `json:"partial_cm,omitempty" yaml:"partial_cm,omitempty"`
	ROC       map[string]*domain.ROCCurve         `json:"roc_curve,omitempty" yaml:"roc_curve,omitempty"`
	PR        map[string]*domain.PRCurve          `json:"precision_recall_curve,omitempty" yaml:"precision_recall_curve,omitempty"`
}

func newReport(plan *Plan, executionID string) *Report {
	return &Report{
		Name:        plan.Name,
		ExecutionID: executionID,
		Groups:      len(plan.Groups),
		Negatives:   lo.SumBy(plan.Groups, func(g domain.GroupCurve) int { return g.NegativeCount }),
		Positives:   lo.SumBy(plan.Groups, func(g domain.GroupCurve) int { return g.PositiveCount() }),
		PartialCM:   make(map[string]*domain.PartialConfusion),
		ROC:         make(map[string]*domain.ROCCurve),
		PR:          make(map[string]*domain.PRCurve),
	}
}

// collect copies whichever results unit id stored in state.
func (r *Report) collect(id string, state domain.State) {
	if pc, ok := domain.Get(state, domain.KeyPartialCM); ok && pc != nil {
		r.PartialCM[id] = pc
	}
	if roc, ok := domain.Get(state, domain.KeyROC); ok && roc != nil {
		r.ROC[id] = roc
	}
	if pr, ok := domain.Get(state, domain.KeyPR); ok && pr != nil {
		r.PR[id] = pr
	}
}

// Encode writes v to w in the given format. JSON has no encoding for
// infinite floats, so a curve whose grid holds an infinite threshold only
// encodes as YAML or msgpack.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json (use yaml or msgpack for infinite thresholds): %w", err)
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode msgpack: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err

	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
