package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	drawinganalyzer "github.com/memorygarden/drawing-analyzer"
	"github.com/memorygarden/drawing-analyzer/internal/config"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

func main() {
	var in, description, assessment string
	var stage int
	var backend, url, model string
	var detectorURL string
	var maxTokens int
	var temperature float64
	var verbose bool

	flag.StringVar(&in, "in", "", "input drawing path (jpg/png/webp)")
	flag.StringVar(&description, "desc", "", "child's description of the drawing")
	flag.IntVar(&stage, "stage", 0, "game stage (0=HTP, 1=PITR, 2+=quest)")
	flag.StringVar(&assessment, "assessment", "", "override assessment type: htp|pitr|quest (default: derived from stage)")

	flag.StringVar(&backend, "backend", "ollama", "interpreter backend: ollama or openai")
	flag.StringVar(&url, "url", "", "interpreter server URL (defaults: ollama=http://localhost:11434, openai=http://localhost:8080)")
	flag.StringVar(&model, "model", "llava", "interpreter model name")
	flag.IntVar(&maxTokens, "maxtokens", 800, "interpreter max tokens")
	flag.Float64Var(&temperature, "temperature", 0.3, "interpreter sampling temperature")

	flag.StringVar(&detectorURL, "detector", "http://localhost:8001", "object detection server URL")
	flag.BoolVar(&verbose, "v", false, "verbose logging")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in drawing.jpg [-stage 0] [-desc text] [-backend ollama|openai] [-url server_url]", filepath.Base(os.Args[0]))
	}

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	cfg := config.Default()
	cfg.Interpreter.Backend = backend
	cfg.Interpreter.Model = model
	cfg.Interpreter.MaxTokens = maxTokens
	cfg.Interpreter.Temperature = temperature
	if url != "" {
		cfg.Interpreter.BaseURL = url
	} else if backend == "openai" {
		cfg.Interpreter.BaseURL = "http://localhost:8080"
	}
	cfg.Detector.BaseURL = detectorURL
	cfg.ApplyEnv()

	analyzer, err := drawinganalyzer.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create analyzer: %v", err)
	}

	ctx := context.Background()

	var result *types.Result
	if assessment != "" {
		result = analyzer.Analyze(ctx, in, description, stage, types.AssessmentType(assessment))
	} else {
		result = analyzer.AnalyzeStage(ctx, in, description, stage)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}
