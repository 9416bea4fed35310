package document

import (
	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// loadPDF extracts plain text from a PDF file, one segment per page.
// Pages without extractable text are skipped.
func loadPDF(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open PDF")
	}
	defer func() {
		_ = f.Close()
	}()

	var segments []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Scanned or malformed pages yield nothing rather than
			// failing the whole document
			continue
		}
		if text != "" {
			segments = append(segments, text)
		}
	}

	return segments, nil
}
