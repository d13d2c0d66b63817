package ocr

import "os/exec"

// Diagnostics reports which optional extraction dependencies are present.
// This feeds the ops health endpoint; it is not part of the extraction
// contract.
type Diagnostics struct {
	TesseractPresent bool   `json:"tesseract_present"`
	TesseractPath    string `json:"tesseract_path,omitempty"`
	PdftoppmPresent  bool   `json:"pdftoppm_present"`
	MuPDFLinked      bool   `json:"mupdf_linked"`
	Lang             string `json:"lang"`
	Enabled          bool   `json:"enabled"`
}

// Probe checks the runtime environment for OCR and rasterization
// capabilities.
func Probe(cfg Config) Diagnostics {
	d := Diagnostics{
		// MuPDF is linked into the binary via go-fitz; if the build
		// succeeded the rasterizer is there.
		MuPDFLinked: true,
		Lang:        cfg.Lang,
		Enabled:     cfg.Enabled,
	}
	if path, err := exec.LookPath("tesseract"); err == nil {
		d.TesseractPresent = true
		d.TesseractPath = path
	}
	if _, err := exec.LookPath("pdftoppm"); err == nil {
		d.PdftoppmPresent = true
	}
	return d
}
