package app

import (
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/churnpredictor/churn"
)

// Run loads configuration and artifacts, then shows the prediction window
// until the user closes it. Artifacts are loaded once for the whole session.
func Run(configPath string) error {
	if configPath == "" {
		configPath = defaultConfigPath
	}
	a := fyneapp.NewWithID(fyneAppID)

	cfg, err := churn.LoadConfig(configPath)
	if err != nil {
		return showFatalError(a, fmt.Errorf("load config: %w", err))
	}

	logBind := binding.NewString()
	logs := newLogCapture(logBind, logLineLimit)
	logs.start()
	defer logs.stop()

	logger, err := churn.NewLogger(cfg.Log, logs)
	if err != nil {
		return showFatalError(a, err)
	}
	defer func() { _ = logger.Sync() }()

	artifacts, err := churn.LoadArtifacts(cfg.Artifacts)
	if err != nil {
		logger.Error("load artifacts", zap.Error(err))
		return showFatalError(a, err)
	}
	svc, err := churn.NewService(artifacts, cfg, logger)
	if err != nil {
		_ = artifacts.Close()
		return showFatalError(a, err)
	}
	defer svc.Close()
	logger.Info("model loaded",
		zap.String("model", svc.ModelID()),
		zap.Int("columns", len(artifacts.Columns)),
		zap.Int("encoders", len(artifacts.Encoders)))

	u := buildUI(a, svc, configPath, logger, logBind)
	u.w.ShowAndRun()
	return nil
}

// showFatalError keeps the window open long enough for the user to read why
// startup failed, then returns err to the caller.
func showFatalError(a fyne.App, err error) error {
	w := a.NewWindow(windowTitle)
	w.SetContent(widget.NewLabel(churn.UserMessage(err)))
	w.Resize(fyne.NewSize(640, 200))
	dialog.ShowError(err, w)
	w.ShowAndRun()
	return err
}
