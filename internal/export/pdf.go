/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"inknote/internal/capture"
	"inknote/internal/version"
)

// PDFOptions controls the capture report.
type PDFOptions struct {
	// Title defaults to "InkNote capture".
	Title string
	// MaxImageHeight limits the image height in mm; 0 means 120.
	MaxImageHeight float64
}

// WritePDFReport writes an A4 report with the captured image, its status and
// the analysis reply text.
func WritePDFReport(r capture.Result, outPath string, opt PDFOptions) error {
	if len(r.Image) == 0 {
		return errors.New("capture has no image")
	}
	if opt.Title == "" {
		opt.Title = "InkNote capture"
	}
	if opt.MaxImageHeight <= 0 {
		opt.MaxImageHeight = 120
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opt.Title, true)
	pdf.SetAuthor("InkNote "+version.String(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 10, tr(opt.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	meta := fmt.Sprintf("capture #%d  %s  status %s  region %.0fx%.0f at (%.0f, %.0f)",
		r.Seq, r.ID, r.Status, r.Rect.W, r.Rect.H, r.Rect.X, r.Rect.Y)
	pdf.CellFormat(contentW, 6, tr(meta), "", 1, "L", false, 0, "")
	if !r.Finished.IsZero() {
		pdf.CellFormat(contentW, 6, r.Finished.Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	name := "capture-" + r.ID
	info := pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(r.Image))
	if pdf.Err() {
		return fmt.Errorf("register image: %w", pdf.Error())
	}
	w, h := info.Width(), info.Height()
	if w > contentW {
		h, w = h*contentW/w, contentW
	}
	if h > opt.MaxImageHeight {
		w, h = w*opt.MaxImageHeight/h, opt.MaxImageHeight
	}
	pdf.SetDrawColor(200, 200, 200)
	x, y := pdf.GetX(), pdf.GetY()
	pdf.ImageOptions(name, x, y, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.Rect(x, y, w, h, "D")
	pdf.SetY(y + h + 6)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, "Analysis", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(contentW, 5.5, tr(reportBody(r)), "", "L", false)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func reportBody(r capture.Result) string {
	switch r.Status {
	case capture.Sent:
		return r.Text
	case capture.Failed:
		return "The analysis request failed: " + r.Reason
	case capture.MissingCredential:
		return "No analysis API key is configured."
	default:
		return "The analysis has not finished."
	}
}
