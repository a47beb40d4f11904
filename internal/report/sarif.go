package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/patterns"
	"github.com/aifoundary/aifoundary/internal/util"
)

const (
	// SARIFFileName is the fixed name of the analysis-results document
	SARIFFileName = "aifoundary-results.sarif"

	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	toolName     = "AIFoundary"
	toolURI      = "https://github.com/aifoundary/aifoundary"
	resultLevel  = "warning"
)

// SARIFLog is the subset of SARIF 2.1.0 produced by the scanner
type SARIFLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

type SARIFRun struct {
	Tool    SARIFTool     `json:"tool"`
	Results []SARIFResult `json:"results"`
}

type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

type SARIFDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []SARIFRule `json:"rules,omitempty"`
}

type SARIFRule struct {
	ID               string       `json:"id"`
	ShortDescription SARIFMessage `json:"shortDescription"`
	FullDescription  SARIFMessage `json:"fullDescription"`
}

type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations"`
}

type SARIFMessage struct {
	Text string `json:"text,omitempty"`
}

type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
}

type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

// SARIFWriter writes the analysis-results document to a fixed path
type SARIFWriter struct {
	outputDir string
	registry  *patterns.Registry
}

// NewSARIFWriter creates a writer placing SARIFFileName under outputDir
func NewSARIFWriter(outputDir string, registry *patterns.Registry) *SARIFWriter {
	if outputDir == "" {
		outputDir = "."
	}
	return &SARIFWriter{outputDir: outputDir, registry: registry}
}

// Path returns the file the writer produces
func (w *SARIFWriter) Path() string {
	return filepath.Join(w.outputDir, SARIFFileName)
}

// Name implements Sink.
func (w *SARIFWriter) Name() string {
	return "sarif"
}

// Report implements Sink. A clean result removes any document left by an
// earlier run.
func (w *SARIFWriter) Report(ctx context.Context, result *domain.ScanResult) error {
	if result.Empty() {
		if err := util.RemoveFile(w.Path()); err != nil {
			return fmt.Errorf("removing stale results: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(w.Build(result), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	if err := util.EnsureDir(w.outputDir); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(w.Path(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

// Build converts the result to a SARIF log with one result per (file, kind)
func (w *SARIFWriter) Build(result *domain.ScanResult) *SARIFLog {
	run := SARIFRun{
		Tool: SARIFTool{Driver: SARIFDriver{
			Name:           toolName,
			InformationURI: toolURI,
			Rules:          w.rules(),
		}},
		Results: make([]SARIFResult, 0, result.FindingCount()),
	}

	for _, f := range result.Findings() {
		run.Results = append(run.Results, SARIFResult{
			RuleID:  string(f.Kind),
			Level:   resultLevel,
			Message: SARIFMessage{Text: w.message(f.Kind)},
			Locations: []SARIFLocation{{
				PhysicalLocation: SARIFPhysicalLocation{
					ArtifactLocation: SARIFArtifactLocation{URI: filepath.ToSlash(f.Path)},
				},
			}},
		})
	}

	return &SARIFLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []SARIFRun{run},
	}
}

func (w *SARIFWriter) rules() []SARIFRule {
	if w.registry == nil {
		return nil
	}
	var rules []SARIFRule
	for _, d := range w.registry.Detectors() {
		rules = append(rules, SARIFRule{
			ID:               string(d.Kind),
			ShortDescription: SARIFMessage{Text: d.Description},
			FullDescription:  SARIFMessage{Text: d.Rationale},
		})
	}
	return rules
}

func (w *SARIFWriter) message(kind domain.RiskKind) string {
	if w.registry != nil {
		if d, ok := w.registry.Lookup(kind); ok && d.Description != "" {
			return fmt.Sprintf("AI risk detected: %s", d.Description)
		}
	}
	return fmt.Sprintf("AI risk detected: %s", kind)
}
