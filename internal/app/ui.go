package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/churnpredictor/churn"
	"yashubustudio/churnpredictor/internal/form"
)

// lastRun is the most recent successful prediction and the row the model saw.
type lastRun struct {
	customer churn.Customer
	prep     churn.Prepared
	pred     churn.Prediction
}

var errNoPrediction = errors.New("run a prediction first")

type uiState struct {
	service    *churn.Service
	configPath string
	logger     *zap.Logger

	w          fyne.Window
	inputs     *formInputs
	result     *widget.Label
	status     *widget.Label
	statusBind binding.String
	logBind    binding.String

	predictBtn *widget.Button
	exportBtn  *widget.Button
	loadBtn    *widget.Button
	resetBtn   *widget.Button

	mu   sync.Mutex
	last *lastRun
}

func buildUI(a fyne.App, svc *churn.Service, configPath string, logger *zap.Logger, logBind binding.String) *uiState {
	u := &uiState{
		service:    svc,
		configPath: configPath,
		logger:     logger,
		logBind:    logBind,
	}
	u.w = a.NewWindow(windowTitle)

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.status = widget.NewLabelWithData(u.statusBind)

	u.inputs = newFormInputs()
	u.inputs.Set(form.Merge(svc.Config().LastInput))

	u.result = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	u.result.Wrapping = fyne.TextWrapWord

	logView := widget.NewEntryWithData(u.logBind)
	logView.MultiLine = true
	logView.Wrapping = fyne.TextWrapWord
	logView.SetPlaceHolder("Log")
	logView.Disable()

	u.predictBtn = widget.NewButtonWithIcon("Predict Churn", theme.ConfirmIcon(), func() { u.onPredict() })
	u.predictBtn.Importance = widget.HighImportance
	u.exportBtn = widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.exportBtn.Disable()
	u.loadBtn = widget.NewButtonWithIcon("Load Record", theme.FolderOpenIcon(), func() { u.onLoadFile() })
	u.resetBtn = widget.NewButtonWithIcon("Reset", theme.ContentUndoIcon(), func() { u.onReset() })
	settingsBtn := widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), func() { u.openSettings() })

	header := container.NewVBox(
		widget.NewLabelWithStyle(windowTitle, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Enter the customer details below to predict churn."),
	)
	controls := container.NewGridWithColumns(5, u.predictBtn, u.exportBtn, u.loadBtn, u.resetBtn, settingsBtn)
	left := container.NewBorder(header, container.NewVBox(controls, u.result, u.status), nil, nil,
		container.NewVScroll(u.inputs.layout()))
	right := container.NewBorder(
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil, logView)

	split := container.NewHSplit(left, right)
	split.Offset = 0.7
	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(windowWidth, windowHeight))
	return u
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.predictBtn, u.loadBtn, u.resetBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
	})
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showError(err error) {
	fyne.Do(func() {
		dialog.ShowError(errors.New(churn.UserMessage(err)), u.w)
	})
}

func (u *uiState) onPredict() {
	values := u.inputs.Values()
	customer, err := form.Decode(values)
	if err != nil {
		dialog.ShowError(err, u.w)
		return
	}
	u.setBusy(true)
	u.setStatus("Predicting...")

	go func() {
		defer u.setBusy(false)
		pred, err := u.predict(context.Background(), customer)
		if err != nil {
			u.logger.Error("prediction failed", zap.Error(err))
			u.setStatus("Error")
			u.showError(err)
			return
		}
		fyne.Do(func() {
			u.result.SetText(pred.Message())
			if pred.Churn {
				u.result.Importance = widget.DangerImportance
			} else {
				u.result.Importance = widget.SuccessImportance
			}
			u.result.Refresh()
			u.exportBtn.Enable()
		})
		u.setStatus(fmt.Sprintf("Done (%s)", pred.Elapsed.Round(time.Microsecond)))
		u.rememberInput(values)
	}()
}

// predict scores customer and keeps the result for export.
func (u *uiState) predict(ctx context.Context, customer churn.Customer) (churn.Prediction, error) {
	pred, err := u.service.Predict(ctx, customer)
	if err != nil {
		return churn.Prediction{}, err
	}
	prep, err := u.service.Prepare(ctx, customer)
	if err != nil {
		return churn.Prediction{}, err
	}
	u.mu.Lock()
	u.last = &lastRun{customer: customer, prep: prep, pred: pred}
	u.mu.Unlock()
	return pred, nil
}

// rememberInput stores the submitted form so the next session starts from it.
func (u *uiState) rememberInput(values form.Values) {
	cfg := u.service.Config()
	cfg.LastInput = values
	u.service.UpdateConfig(cfg)
	if err := churn.SaveConfig(u.configPath, cfg); err != nil {
		u.logger.Warn("save config", zap.Error(err))
	}
}

func (u *uiState) onReset() {
	u.mu.Lock()
	u.last = nil
	u.mu.Unlock()

	u.inputs.Set(form.Defaults())
	u.result.SetText("")
	u.result.Importance = widget.MediumImportance
	u.result.Refresh()
	u.exportBtn.Disable()
	u.setStatus("Ready")
}

// writeLast writes the explanation of the last prediction as CSV.
func (u *uiState) writeLast(w io.Writer) error {
	u.mu.Lock()
	run := u.last
	u.mu.Unlock()
	if run == nil {
		return errNoPrediction
	}
	return writeExplanation(w, run.customer.Record(), run.prep, run.pred)
}

func (u *uiState) onExport() {
	var buf bytes.Buffer
	if err := u.writeLast(&buf); err != nil {
		if errors.Is(err, errNoPrediction) {
			dialog.ShowInformation("Export", "Run a prediction first", u.w)
			return
		}
		dialog.ShowError(err, u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if _, err := uc.Write(buf.Bytes()); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("exported prediction", zap.String("path", uc.URI().Path()))
	}, u.w)
	fd.SetFileName("prediction.csv")
	fd.Show()
}

// applyRecord fills the form from a JSON or YAML record. Fields the record
// omits are reset to their defaults so the form shows what Decode accepted.
func (u *uiState) applyRecord(data []byte, ext, name string) error {
	values, ignored, err := form.ParseValues(data, strings.ToLower(ext))
	if err != nil {
		return err
	}
	if len(ignored) > 0 {
		u.logger.Warn("ignored unknown fields", zap.String("file", name), zap.Strings("fields", ignored))
	}
	merged := form.Merge(values)
	if _, err := form.Decode(merged); err != nil {
		return err
	}
	u.inputs.Set(merged)
	u.logger.Info("loaded record", zap.String("file", name), zap.Int("fields", len(values)))
	return nil
}

func (u *uiState) onLoadFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if err := u.applyRecord(data, rc.URI().Extension(), filepath.Base(rc.URI().Path())); err != nil {
			dialog.ShowError(err, u.w)
		}
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json", ".yaml", ".yml"}))
	fd.Show()
}

func (u *uiState) openSettings() {
	cfg := u.service.Config()

	policySel := widget.NewSelect([]string{string(churn.UnknownReject), string(churn.UnknownSentinel)}, nil)
	policySel.SetSelected(string(cfg.UnknownCategory))

	items := &widget.Form{Items: []*widget.FormItem{
		{Text: "Model", Widget: widget.NewLabel(u.service.ModelID())},
		{Text: "Unseen categories", Widget: policySel},
		{Text: "Config file", Widget: widget.NewLabel(u.configPath)},
	}}

	dialog.NewCustomConfirm("Settings", "OK", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		next := u.service.Config()
		next.UnknownCategory = churn.UnknownPolicy(policySel.Selected)
		u.service.UpdateConfig(next)
		if err := churn.SaveConfig(u.configPath, next); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("settings updated", zap.String("unknownCategory", string(next.UnknownCategory)))
	}, u.w).Show()
}
