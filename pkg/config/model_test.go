package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadModelDefaultsDates(t *testing.T) {
	p := writeTemp(t, "model.yaml", `
name: test
categories:
  - id: coding
    name: Coding
    weight: 1.0
exposure:
  information: {low: 0.1, mid: 0.2, high: 0.3}
other: {low: 0.01, mid: 0.02, high: 0.03}
`)

	m, warns, err := LoadModel(p)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if m.Epoch != defaultEpoch || m.Inflection != defaultInflection {
		t.Errorf("expected default dates, got epoch=%q inflection=%q", m.Epoch, m.Inflection)
	}
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
}

func TestModelWarnings(t *testing.T) {
	m := &ModelConfig{
		Name:       "test",
		Epoch:      "2025-01-01",
		Inflection: "not-a-date",
		Categories: []ModelCategory{
			{ID: "coding", Name: "Coding", Weight: 0.6},
			{ID: "support", Name: "Support", Weight: 0.6},
		},
		Companies: []ModelCompany{
			{Name: "Acme", Category: "nonexistent", OperationalFactor: 1.5, LaunchDate: "2023-13-99"},
		},
		Exposure: map[string]ExposureRate{
			"information": {Low: 0.3, Mid: 0.2, High: 0.1},
		},
	}

	warns := m.Warnings()
	for _, want := range []string{
		"weights sum to 1.2000",
		"unknown category",
		"operational_factor 1.50",
		"bad launch_date",
		"low <= mid <= high",
		"bad inflection date",
	} {
		found := false
		for _, w := range warns {
			if strings.Contains(w, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing warning containing %q in %v", want, warns)
		}
	}
}

func TestEpochDateFallsBackOnBadInput(t *testing.T) {
	m := &ModelConfig{Epoch: "garbage"}
	if got := m.EpochDate().Format("2006-01-02"); got != defaultEpoch {
		t.Errorf("EpochDate fallback = %s, want %s", got, defaultEpoch)
	}
}
