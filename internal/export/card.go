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
	"image/png"

	"golang.org/x/image/font"

	"inknote/internal/caption"
	"inknote/internal/capture"
)

// WriteCard writes the captured image with the reply (or the failure
// reason) printed below it. A nil face uses the built-in bitmap font.
func WriteCard(r capture.Result, outPath string, face font.Face) error {
	if len(r.Image) == 0 {
		return errors.New("capture has no image")
	}
	img, err := png.Decode(bytes.NewReader(r.Image))
	if err != nil {
		return fmt.Errorf("decode capture: %w", err)
	}
	if face == nil {
		if face, err = (*caption.Font)(nil).Face(0); err != nil {
			return err
		}
	}
	return WriteImage(caption.Card(img, reportBody(r), face, caption.Options{}), outPath)
}
