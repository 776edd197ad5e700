package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	simapi "hivsim/pkg/hivsim"
)

func loadOrDefaultRunRequest(path string) (simapi.RunRequest, error) {
	if path == "" {
		return simapi.RunRequest{}, nil
	}
	return loadRunRequestFromConfig(path)
}

func loadRunRequestFromConfig(path string) (simapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return simapi.RunRequest{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	var req simapi.RunRequest
	if v, ok := asString(raw["scenario"]); ok {
		req.Scenario = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["years"]); ok {
		req.Years = v
	}
	if v, ok := asFloat64(raw["start_year"]); ok {
		req.StartYear = v
	}
	if v, ok := asFloat64(raw["time_step"]); ok {
		req.TimeStep = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asString(raw["mixing"]); ok {
		req.Mixing = v
	}
	if v, ok := asInt(raw["regions"]); ok {
		req.Regions = v
	}
	if v, ok := asFloat64(raw["initial_prevalence"]); ok {
		req.InitialPrevalence = v
	}
	return req, nil
}

// overrideFromFlags lets explicitly-set command-line flags win over the
// config file.
func overrideFromFlags(req *simapi.RunRequest, set map[string]bool, values map[string]any) {
	for name, value := range values {
		if !set[name] {
			continue
		}
		switch name {
		case "scenario":
			req.Scenario = value.(string)
		case "pop":
			req.Population = value.(int)
		case "years":
			req.Years = value.(int)
		case "start-year":
			req.StartYear = value.(float64)
		case "dt":
			req.TimeStep = value.(float64)
		case "seed":
			req.Seed = value.(int64)
		case "mixing":
			req.Mixing = value.(string)
		case "regions":
			req.Regions = value.(int)
		case "prevalence":
			req.InitialPrevalence = value.(float64)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat64(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
