// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the document title from the PDF info dictionary and
// the plain text of every page. The PDF reader panics on some malformed
// inputs; those are returned as errors.
func extractPDF(body []byte) (title, text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", "", err
	}

	title = collapse(r.Trailer().Key("Info").Key("Title").Text())
	return title, cleanText(b.String()), nil
}
