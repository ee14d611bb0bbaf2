package app

import (
	"fmt"
	"math"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/churnpredictor/internal/form"
)

// fieldInput binds one form field to the widget that edits it.
type fieldInput struct {
	field form.Field
	obj   fyne.CanvasObject
	get   func() string
	set   func(string)
}

func newFieldInput(f form.Field) *fieldInput {
	in := &fieldInput{field: f}
	switch f.Kind {
	case form.KindSelect:
		sel := widget.NewSelect(f.Options, nil)
		in.obj = sel
		in.get = func() string { return sel.Selected }
		in.set = func(v string) {
			if indexOf(f.Options, v) < 0 {
				v = f.Default
			}
			sel.SetSelected(v)
		}
	case form.KindInt:
		slider := widget.NewSlider(f.Min, f.Max)
		slider.Step = f.Step
		value := widget.NewLabel("")
		slider.OnChanged = func(x float64) { value.SetText(strconv.Itoa(int(math.Round(x)))) }
		in.obj = container.NewBorder(nil, nil, nil, value, slider)
		in.get = func() string { return strconv.Itoa(int(math.Round(slider.Value))) }
		in.set = func(v string) {
			n, err := strconv.Atoi(v)
			if err != nil || f.Check(v) != nil {
				n, _ = strconv.Atoi(f.Default)
			}
			slider.SetValue(float64(n))
			value.SetText(strconv.Itoa(n))
		}
	default:
		entry := widget.NewEntry()
		entry.Validator = f.Check
		entry.SetPlaceHolder(fmt.Sprintf("%g to %g", f.Min, f.Max))
		in.obj = entry
		in.get = func() string { return entry.Text }
		in.set = entry.SetText
	}
	in.set(f.Default)
	return in
}

// row renders the label above the input.
func (in *fieldInput) row() fyne.CanvasObject {
	return container.NewVBox(widget.NewLabel(in.field.Label), in.obj)
}

// formInputs holds every field widget in layout order.
type formInputs struct {
	byName map[string]*fieldInput
	order  []*fieldInput
}

func newFormInputs() *formInputs {
	fi := &formInputs{byName: make(map[string]*fieldInput)}
	for _, f := range form.Fields() {
		in := newFieldInput(f)
		fi.byName[f.Name] = in
		fi.order = append(fi.order, in)
	}
	return fi
}

// Values reads the current widget state.
func (fi *formInputs) Values() form.Values {
	v := make(form.Values, len(fi.order))
	for _, in := range fi.order {
		v[in.field.Name] = in.get()
	}
	return v
}

// Set writes values into the widgets. Unknown keys are ignored.
func (fi *formInputs) Set(v form.Values) {
	for name, val := range v {
		if in, ok := fi.byName[name]; ok {
			in.set(val)
		}
	}
}

// layout builds one titled card per section with its two columns side by side.
func (fi *formInputs) layout() fyne.CanvasObject {
	var cards []fyne.CanvasObject
	for _, s := range form.Sections() {
		var cols [2]*fyne.Container
		for i, fields := range s.Columns {
			cols[i] = container.NewVBox()
			for _, f := range fields {
				cols[i].Add(fi.byName[f.Name].row())
			}
		}
		cards = append(cards, widget.NewCard(s.Title, "", container.NewGridWithColumns(2, cols[0], cols[1])))
	}
	return container.NewVBox(cards...)
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
