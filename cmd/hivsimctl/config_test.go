package main

import (
	"os"
	"path/filepath"
	"testing"

	simapi "hivsim/pkg/hivsim"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := writeConfig(t, `{
		"scenario": "scaleup",
		"population": 5000,
		"years": 30,
		"start_year": 1990,
		"time_step": 0.5,
		"seed": 99,
		"mixing": "naive",
		"regions": 4,
		"initial_prevalence": 0.015
	}`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	want := simapi.RunRequest{
		Scenario:          "scaleup",
		Population:        5000,
		Years:             30,
		StartYear:         1990,
		TimeStep:          0.5,
		Seed:              99,
		Mixing:            "naive",
		Regions:           4,
		InitialPrevalence: 0.015,
	}
	if req != want {
		t.Fatalf("loaded request %+v, want %+v", req, want)
	}
}

func TestLoadRunRequestIgnoresUnknownAndPartialFields(t *testing.T) {
	path := writeConfig(t, `{"scenario": "baseline", "unknown_key": true}`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Scenario != "baseline" {
		t.Fatalf("scenario = %s, want baseline", req.Scenario)
	}
	if req.Population != 0 || req.Years != 0 {
		t.Fatalf("unset fields should stay zero: %+v", req)
	}
}

func TestLoadRunRequestRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"scenario": `)
	if _, err := loadRunRequestFromConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadRunRequestRejectsFractionalInts(t *testing.T) {
	path := writeConfig(t, `{"population": 100.5}`)
	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Population != 0 {
		t.Fatalf("fractional population should be ignored, got %d", req.Population)
	}
}

func TestOverrideFromFlagsOnlyAppliesSetFlags(t *testing.T) {
	req := simapi.RunRequest{Scenario: "baseline", Population: 5000, Seed: 1}

	overrideFromFlags(&req, map[string]bool{"seed": true}, map[string]any{
		"scenario": "scaleup",
		"pop":      999,
		"seed":     int64(42),
	})

	if req.Seed != 42 {
		t.Fatalf("seed = %d, want override 42", req.Seed)
	}
	if req.Scenario != "baseline" || req.Population != 5000 {
		t.Fatalf("unset flags must not override config values: %+v", req)
	}
}
