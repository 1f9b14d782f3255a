/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package analysis

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the generateContent body: one user turn holding the prompt
// and the inline image.
type Request struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

// Part carries either text or inline data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// NewRequest builds a request body with data base64 encoded inline.
func NewRequest(prompt, mimeType string, data []byte) Request {
	return Request{Contents: []Content{{Parts: []Part{
		{Text: prompt},
		{InlineData: &InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	}}}}
}

// response covers the nested candidate shape and the flat alternates some
// proxies return.
type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Text       string `json:"text"`
	OutputText string `json:"output_text"`
}

// ExtractText returns the reply text of a successful response body. The
// text parts of the first candidate win, then a top-level "text" or
// "output_text" field. A body with none of them yields Placeholder.
func ExtractText(body []byte) (string, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(r.Candidates) > 0 {
		var sb strings.Builder
		for _, p := range r.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			return s, nil
		}
	}
	for _, s := range []string{r.Text, r.OutputText} {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
	return Placeholder, nil
}
