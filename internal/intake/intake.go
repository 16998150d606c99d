/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package intake checks user uploads before anything is sent to the backend.
package intake

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"campaignwizard/internal/workflow"
)

const (
	MaxBriefFileBytes    = 25 * 1024 * 1024
	MaxProductImageBytes = 10 * 1024 * 1024

	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var ErrValidation = errors.New("validation failed")

// ValidationError rejects an upload locally. Message is meant for the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// BriefFile is an accepted brief document.
type BriefFile struct {
	Name  string
	Mime  string
	Data  []byte
	Pages int // PDFs only
}

// ValidateBriefFile accepts PDF and DOCX documents up to 25 MB. Both the
// extension and the content must agree on the type.
func ValidateBriefFile(name string, data []byte) (BriefFile, error) {
	if len(data) == 0 {
		return BriefFile{}, invalid("file", "the file is empty")
	}
	if len(data) > MaxBriefFileBytes {
		return BriefFile{}, invalid("file", "File size must be less than 25MB.")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		pages, err := pdfPages(data)
		if err != nil {
			return BriefFile{}, invalid("file", "the PDF could not be read: "+err.Error())
		}
		return BriefFile{Name: name, Mime: MimePDF, Data: data, Pages: pages}, nil
	case ".docx":
		if err := checkDocx(data); err != nil {
			return BriefFile{}, invalid("file", "the DOCX could not be read: "+err.Error())
		}
		return BriefFile{Name: name, Mime: MimeDOCX, Data: data}, nil
	}
	return BriefFile{}, invalid("file", "Please upload only PDF or DOCX files.")
}

func init() {
	// Keep pdfcpu from creating its config directory under the user's home.
	model.ConfigPath = "disable"
}

func pdfPages(data []byte) (int, error) {
	if http.DetectContentType(data) != MimePDF {
		return 0, errors.New("not a PDF document")
	}
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

func checkDocx(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return nil
		}
	}
	return errors.New("word/document.xml not found in archive")
}

// ProductImage is an accepted product reference image.
type ProductImage struct {
	Name string
	Mime string
	Data []byte
}

var productMimes = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}

// ValidateProductImage accepts JPEG, PNG and WebP up to 10 MB, judged by content.
func ValidateProductImage(name string, data []byte) (ProductImage, error) {
	if len(data) == 0 {
		return ProductImage{}, invalid("product_sku", "the file is empty")
	}
	if len(data) > MaxProductImageBytes {
		return ProductImage{}, invalid("product_sku", "File size must be less than 10MB.")
	}
	mime := http.DetectContentType(data)
	if !productMimes[mime] {
		return ProductImage{}, invalid("product_sku", "Please upload only JPG, PNG, or WebP images.")
	}
	return ProductImage{Name: name, Mime: mime, Data: data}, nil
}

// ValidateBriefText enforces the minimum pasted-brief length.
func ValidateBriefText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if !workflow.TextLongEnough(t) {
		return "", invalid("text", fmt.Sprintf("please paste at least %d characters", workflow.MinBriefTextChars))
	}
	return t, nil
}
