// Package hocr reads the page index and OCR confidence out of hOCR page reports
// produced by the conversion service.
package hocr

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// MetaName identifies the meta tag carrying OCR engine metadata.
	MetaName = "ocr-system"
	// AttrExtractPercentage holds the share of text the engine could extract, as a decimal string.
	AttrExtractPercentage = "extract-percentage"
)

// Miss explains why a report contributed no value.
type Miss string

const (
	MissNone        Miss = ""
	MissNoMeta      Miss = "meta tag absent"
	MissNoAttribute Miss = "extract-percentage absent"
	MissBadValue    Miss = "extract-percentage not numeric"
	MissBadName     Miss = "filename has no page segment"
	MissBadPage     Miss = "page segment not a non-negative integer"
)

// Confidence parses hOCR markup and returns the extract-percentage of its
// ocr-system meta tag. ok is false when the tag or attribute is missing or
// the value is not a number; err is reserved for read failures.
func Confidence(r io.Reader) (value float64, ok bool, err error) {
	v, miss, err := confidence(r)
	return v, miss == MissNone && err == nil, err
}

// ConfidenceFile is Confidence over the file at path.
func ConfidenceFile(path string) (float64, bool, error) {
	v, miss, err := confidenceFile(path)
	return v, miss == MissNone && err == nil, err
}

func confidenceFile(path string) (float64, Miss, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, MissNone, err
	}
	defer f.Close()
	return confidence(f)
}

func confidence(r io.Reader) (float64, Miss, error) {
	root, err := html.Parse(r)
	if err != nil {
		return 0, MissNone, fmt.Errorf("parse hocr: %w", err)
	}
	meta := goquery.NewDocumentFromNode(root).Find(`meta[name="` + MetaName + `"]`).First()
	if meta.Length() == 0 {
		return 0, MissNoMeta, nil
	}
	raw, ok := meta.Attr(AttrExtractPercentage)
	if !ok {
		return 0, MissNoAttribute, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, MissBadValue, nil
	}
	return v, MissNone, nil
}

// PageNumber derives the 1-based page number from a report filename of the
// form <anything>.<N>.<suffix>.<ext>, where N is the 0-based page index.
//
//	doc.0003.hocr.html -> 4
//	report.html        -> absent
func PageNumber(filename string) (int, bool) {
	n, miss := pageNumber(filename)
	return n, miss == MissNone
}

func pageNumber(filename string) (int, Miss) {
	stem := trimExt(filename)

	// drop the report suffix segment, then take the segment before it
	i := strings.LastIndex(stem, ".")
	if i < 0 {
		return 0, MissBadName
	}
	left := stem[:i]
	j := strings.LastIndex(left, ".")
	if j < 0 {
		return 0, MissBadName
	}

	idx, err := strconv.Atoi(strings.TrimSpace(left[j+1:]))
	if err != nil || idx < 0 {
		return 0, MissBadPage
	}
	return idx + 1, MissNone
}

// trimExt removes the final extension. Leading dots (hidden files) are not an extension.
func trimExt(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || strings.Trim(name[:i], ".") == "" {
		return name
	}
	return name[:i]
}
