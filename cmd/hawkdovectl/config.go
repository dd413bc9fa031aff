package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	hdapi "hawkdove/pkg/hawkdove"
)

// loadRunRequestFromConfig reads a run config file into a RunRequest. The
// file parses as YAML, which also accepts JSON payloads.
func loadRunRequestFromConfig(path string) (hdapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return hdapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return hdapi.RunRequest{}, err
	}

	var req hdapi.RunRequest
	if v, ok := asString(raw["stage"]); ok {
		req.Stage = v
	}
	if v, ok := asInt(raw["rounds"]); ok {
		req.Rounds = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asFloat64(raw["cost"]); ok {
		req.Cost = v
	}
	if v, ok := asFloat64(raw["reward"]); ok {
		req.Reward = v
	}
	if v, ok := asColorCounts(raw["colors"]); ok {
		req.Colors = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func asColorCounts(v any) (map[string]int, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(m))
	for name, value := range m {
		count, ok := asInt(value)
		if !ok {
			return nil, false
		}
		out[name] = count
	}
	return out, true
}

func overrideFromFlags(req *hdapi.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "stage":
			req.Stage = v.(string)
		case "rounds":
			req.Rounds = v.(int)
		case "workers":
			req.Workers = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "cost":
			req.Cost = v.(float64)
		case "reward":
			req.Reward = v.(float64)
		case "colors":
			req.Colors = v.(map[string]int)
		}
	}
	if req.Stage == "" {
		req.Stage = "stage1"
	}
	return nil
}

func loadOrDefaultRunRequest(configPath string) (hdapi.RunRequest, error) {
	if configPath == "" {
		return hdapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return hdapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func parseColors(s string) (map[string]int, error) {
	out := make(map[string]int)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, countText, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid color pair %q, want name=count", pair)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid color pair %q, want name=count", pair)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil {
			return nil, fmt.Errorf("invalid population for color %s: %w", name, err)
		}
		out[name] = count
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("colors must not be empty")
	}
	return out, nil
}

func parseSeeds(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		seed, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", field, err)
		}
		out = append(out, seed)
	}
	return out, nil
}
