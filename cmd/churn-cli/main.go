package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"yashubustudio/churnpredictor/churn"
	"yashubustudio/churnpredictor/internal/form"
	"yashubustudio/churnpredictor/internal/prompt"
)

type cliOptions struct {
	configPath string
	inputPath  string
	sets       setFlags
	explain    bool
	jsonOut    bool
}

// setFlags collects repeated --set name=value overrides.
type setFlags form.Values

func (s setFlags) String() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (s setFlags) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	if _, known := form.Lookup(name); !known {
		return fmt.Errorf("unknown field %q", name)
	}
	s[name] = strings.TrimSpace(value)
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("churn-cli: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, os.Stdout); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		log.Fatalf("churn-cli: %s", churn.UserMessage(err))
	}
}

func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	opts := cliOptions{sets: setFlags{}}
	fs := flag.NewFlagSet("churn-cli", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	fs.StringVar(&opts.inputPath, "input", "", "JSON/YAML file holding one customer's form values")
	fs.Var(opts.sets, "set", "Override one field as name=value (repeatable)")
	fs.BoolVar(&opts.explain, "explain", false, "Print the encoded feature row")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print the prediction as JSON")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [--input FILE] [--set name=value ...] [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(fs.Output(), "Without --input the customer form is asked interactively.")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	return opts, nil
}

func run(ctx context.Context, opts cliOptions, out io.Writer) error {
	cfg, err := churn.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := churn.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	artifacts, err := churn.LoadArtifacts(cfg.Artifacts)
	if err != nil {
		return err
	}
	svc, err := churn.NewService(artifacts, cfg, logger)
	if err != nil {
		_ = artifacts.Close()
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()

	values, err := collect(ctx, opts, logger)
	if err != nil {
		return err
	}
	customer, err := form.Decode(values)
	if err != nil {
		return err
	}
	pred, err := svc.Predict(ctx, customer)
	if err != nil {
		return err
	}

	var prep *churn.Prepared
	if opts.explain {
		p, err := svc.Prepare(ctx, customer)
		if err != nil {
			return err
		}
		prep = &p
	}
	if opts.jsonOut {
		return writeJSON(out, pred, prep)
	}
	if prep != nil {
		if err := writeTable(out, customer.Record(), *prep); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out, pred.Message())
	return err
}

// collect resolves form values from --input or the terminal, then applies --set.
func collect(ctx context.Context, opts cliOptions, logger *zap.Logger) (form.Values, error) {
	var values form.Values
	if opts.inputPath != "" {
		fromFile, ignored, err := form.ReadValues(opts.inputPath)
		if err != nil {
			return nil, err
		}
		if len(ignored) > 0 {
			logger.Warn("ignored unknown fields", zap.String("file", opts.inputPath), zap.Strings("fields", ignored))
		}
		values = form.Merge(fromFile)
	} else {
		seed := form.Merge(opts.sets)
		asked, err := prompt.Collect(ctx, prompt.NewSurveyDriver(), seed)
		if err != nil {
			return nil, err
		}
		values = asked
	}
	for k, v := range opts.sets {
		values[k] = v
	}
	return values, nil
}

func writeJSON(out io.Writer, pred churn.Prediction, prep *churn.Prepared) error {
	payload := struct {
		churn.Prediction
		Message  string          `json:"message"`
		Prepared *churn.Prepared `json:"prepared,omitempty"`
	}{Prediction: pred, Message: pred.Message(), Prepared: prep}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeTable(out io.Writer, raw churn.Record, prep churn.Prepared) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tINPUT\tFEATURE")
	for i, col := range prep.Record.Columns {
		input := "-"
		if v, ok := raw.Get(col); ok {
			input = v.String()
		}
		feature := ""
		if i < len(prep.Features) {
			feature = strconv.FormatFloat(float64(prep.Features[i]), 'f', -1, 32)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", col, input, feature)
	}
	return tw.Flush()
}
