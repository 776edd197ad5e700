package plot

import (
	"bytes"
	"testing"

	"hivsim/internal/model"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func TestRenderPrevalencePNG(t *testing.T) {
	snapshots := []model.IndicatorSnapshot{
		{Year: 1985, Prevalence15to49: 0.008, IncidencePer1000: 1.5},
		{Year: 1986, Prevalence15to49: 0.009, IncidencePer1000: 1.7},
		{Year: 1987, Prevalence15to49: 0.011, IncidencePer1000: 2.0},
	}

	var buf bytes.Buffer
	if err := RenderPrevalencePNG(&buf, snapshots); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
		t.Fatal("output is not a PNG")
	}
}

func TestRenderPrevalencePNGRejectsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPrevalencePNG(&buf, nil); err == nil {
		t.Fatal("expected error for empty snapshot series")
	}
}

func TestRenderSummaryPNG(t *testing.T) {
	summary := []model.BatchYearSummary{
		{Year: 1985, MeanPrevalence: 0.008, PrevalenceP10: 0.006, PrevalenceP90: 0.011},
		{Year: 1986, MeanPrevalence: 0.009, PrevalenceP10: 0.007, PrevalenceP90: 0.012},
		{Year: 1987, MeanPrevalence: 0.011, PrevalenceP10: 0.008, PrevalenceP90: 0.014},
	}

	var buf bytes.Buffer
	if err := RenderSummaryPNG(&buf, summary); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
		t.Fatal("output is not a PNG")
	}
}
