//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"inknote/internal/board"
	"inknote/internal/capture"
	"inknote/internal/crash"
	"inknote/internal/export"
	applog "inknote/internal/log"
	"inknote/internal/tool"
	"inknote/internal/version"
)

var toolLabels = []string{"Pen", "Eraser", "Select"}

func labelFor(m tool.Mode) string {
	switch m {
	case tool.Eraser:
		return "Eraser"
	case tool.RegionSelect:
		return "Select"
	default:
		return "Pen"
	}
}

func modeFor(label string) tool.Mode {
	switch label {
	case "Eraser":
		return tool.Eraser
	case "Select":
		return tool.RegionSelect
	default:
		return tool.Pen
	}
}

// Run starts the Fyne desktop shell around a board built from opt.Board.
func Run(opt Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	b := board.New(opt.Board)
	defer b.Close()
	defer crash.Recover(crash.Options{Autosave: b})

	fyneApp := app.NewWithID("inknote")
	w := fyneApp.NewWindow("InkNote")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1000)
	winH := prefs.IntWithFallback("window.height", 700)
	if winW < 480 {
		winW = 480
	}
	if winH < 360 {
		winH = 360
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	ink := NewInkCanvas(b)
	status := widget.NewLabel("Ready")

	tools := widget.NewRadioGroup(toolLabels, nil)
	tools.Horizontal = true
	tools.Required = true
	tools.SetSelected(labelFor(b.Tool()))
	tools.OnChanged = func(s string) {
		if s == "" || modeFor(s) == b.Tool() {
			return
		}
		b.SelectTool(modeFor(s))
	}

	undoBtn := widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), func() { b.Undo() })
	redoBtn := widget.NewButtonWithIcon("Redo", theme.ContentRedoIcon(), func() { b.Redo() })
	clearAll := func() { confirmClear(w, b) }
	clearBtn := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), clearAll)
	toolbar := container.NewHBox(tools, widget.NewSeparator(), undoBtn, redoBtn, clearBtn)

	// Capture result panel
	capTitle := widget.NewLabelWithStyle("Capture", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	capStatus := widget.NewLabel("")
	capImage := canvas.NewImageFromImage(nil)
	capImage.FillMode = canvas.ImageFillContain
	capImage.SetMinSize(fyne.NewSize(200, 150))
	capText := widget.NewLabel("")
	capText.Wrapping = fyne.TextWrapWord
	var current capture.Result
	exportPNG := widget.NewButtonWithIcon("PNG…", theme.DocumentSaveIcon(), func() {
		saveCapture(w, current, ".png", func(r capture.Result, path string) error { return export.WritePNG(r, path) })
	})
	exportPDF := widget.NewButtonWithIcon("Report…", theme.DocumentPrintIcon(), func() {
		saveCapture(w, current, ".pdf", func(r capture.Result, path string) error {
			return export.WritePDFReport(r, path, export.PDFOptions{})
		})
	})
	exportCard := widget.NewButtonWithIcon("Card…", theme.FileImageIcon(), func() {
		saveCapture(w, current, ".png", func(r capture.Result, path string) error {
			return export.WriteCard(r, path, opt.CaptionFace)
		})
	})
	dismiss := widget.NewButtonWithIcon("Dismiss", theme.CancelIcon(), func() { b.DismissCapture() })
	panel := container.NewBorder(
		container.NewVBox(capTitle, capStatus, capImage),
		container.NewHBox(exportPNG, exportPDF, exportCard, dismiss),
		nil, nil,
		container.NewVScroll(capText),
	)
	panel.Hide()

	lastImage := ""
	refreshCapture := func() {
		r, visible := b.Capture()
		if !visible {
			panel.Hide()
			return
		}
		current = r
		capStatus.SetText(captureStatus(r))
		if r.ID != lastImage && len(r.Image) > 0 {
			if img, err := png.Decode(bytes.NewReader(r.Image)); err == nil {
				capImage.Image = img
				capImage.Refresh()
				lastImage = r.ID
			}
		}
		switch {
		case r.Status == capture.Sent:
			capText.SetText(r.Text)
		case r.Reason != "":
			capText.SetText(r.Reason)
		default:
			capText.SetText("")
		}
		if r.Status.Terminal() {
			exportPNG.Enable()
			exportPDF.Enable()
			exportCard.Enable()
		} else {
			exportPNG.Disable()
			exportPDF.Disable()
			exportCard.Disable()
		}
		panel.Show()
	}

	refreshControls := func() {
		if b.CanUndo() {
			undoBtn.Enable()
		} else {
			undoBtn.Disable()
		}
		if b.CanRedo() {
			redoBtn.Enable()
		} else {
			redoBtn.Disable()
		}
		if m := labelFor(b.Tool()); tools.Selected != m {
			tools.SetSelected(m)
		}
		status.SetText(fmt.Sprintf("Tool: %s | strokes: %d", b.Tool(), len(b.Strokes())))
	}

	b.OnChange(func(c board.Change) {
		fyne.Do(func() {
			if c&(board.ChangedStrokes|board.ChangedInFlight|board.ChangedSelection) != 0 {
				ink.Redraw()
			}
			if c&(board.ChangedStrokes|board.ChangedTool) != 0 {
				refreshControls()
			}
			if c&board.ChangedCapture != 0 {
				refreshCapture()
			}
		})
	})
	refreshControls()

	split := container.NewHSplit(ink, panel)
	split.Offset = 0.72
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, split))

	// Edit shortcuts
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { b.Undo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { b.Redo() })
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		switch e.Name {
		case fyne.KeyP:
			b.SelectTool(tool.Pen)
		case fyne.KeyE:
			b.SelectTool(tool.Eraser)
		case fyne.KeyS:
			b.SelectTool(tool.RegionSelect)
		case fyne.KeyEscape:
			b.DismissCapture()
		}
	})

	snapshotItem := fyne.NewMenuItem("Export Drawing…", func() {
		d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			path, err := b.Autosave(uri.Path())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Export Drawing", "Saved to "+path, w)
		}, w)
		d.Show()
	})
	fileMenu := fyne.NewMenu("File", snapshotItem)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { b.Undo() }),
		fyne.NewMenuItem("Redo", func() { b.Redo() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear", clearAll),
	)
	toolMenu := fyne.NewMenu("Tool",
		fyne.NewMenuItem("Pen", func() { b.SelectTool(tool.Pen) }),
		fyne.NewMenuItem("Eraser", func() { b.SelectTool(tool.Eraser) }),
		fyne.NewMenuItem("Select Region", func() { b.SelectTool(tool.RegionSelect) }),
	)
	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About InkNote", func() {
		dialog.ShowInformation("About", "InkNote "+version.String(), w)
	}))
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolMenu, aboutMenu))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.Sync(ctx); err != nil {
			l.Warn("state track did not drain", slog.Any("err", err))
		}
		w.Close()
	})

	w.ShowAndRun()
	return nil
}

// clearPrompt is shown before Clear; it empties both undo and redo.
const clearPrompt = "Remove all strokes? Clear cannot be undone."

func confirmClear(w fyne.Window, b *board.Board) {
	if len(b.Strokes()) == 0 {
		return
	}
	dialog.ShowConfirm("Clear", clearPrompt, func(ok bool) {
		if ok {
			b.Clear()
		}
	}, w)
}

func captureStatus(r capture.Result) string {
	switch r.Status {
	case capture.Sending:
		return fmt.Sprintf("Sending %dx%d region…", r.Width, r.Height)
	case capture.Sent:
		return "Sent"
	case capture.Failed:
		return "Failed"
	case capture.MissingCredential:
		return "No API key configured. Set INK_ANALYSIS_KEY or run: inknote login"
	default:
		return ""
	}
}

func saveCapture(w fyne.Window, r capture.Result, ext string, write func(capture.Result, string) error) {
	if len(r.Image) == 0 {
		dialog.ShowInformation("Export", "No capture to export.", w)
		return
	}
	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uc == nil {
			return
		}
		outPath := uc.URI().Path()
		_ = uc.Close()
		if !strings.HasSuffix(strings.ToLower(outPath), ext) {
			outPath += ext
		}
		if err := write(r, outPath); err != nil {
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation("Export", "Exported to "+outPath, w)
	}, w)
	save.SetFileName(fmt.Sprintf("capture-%d%s", r.Seq, ext))
	save.SetFilter(fstorage.NewExtensionFileFilter([]string{ext}))
	save.Show()
}
