/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package caption

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Font is a loaded OpenType or TrueType font. A nil *Font falls back to
// basicfont's 7x13 face, which keeps output deterministic for tests.
type Font struct {
	f *opentype.Font
}

// LoadFont reads a .ttf or .otf file.
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return &Font{f: f}, nil
}

// Face returns a face at sizePt (12 when zero) and 72 dpi.
func (fn *Font) Face(sizePt float64) (font.Face, error) {
	if fn == nil || fn.f == nil {
		return basicfont.Face7x13, nil
	}
	if sizePt <= 0 {
		sizePt = 12
	}
	return opentype.NewFace(fn.f, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: font.HintingFull})
}
