package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// formPDF builds a one-page PDF whose AcroForm holds a text field NoGU and a
// checkbox nested as Recepisse.DT.
func formPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [4 0 R 5 0 R] /DA (/Helv 0 Tf 0 g) >> >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Annots [4 0 R 6 0 R] >>",
		"<< /FT /Tx /T (NoGU) /Type /Annot /Subtype /Widget /Rect [50 700 250 720] /P 3 0 R >>",
		"<< /T (Recepisse) /Kids [6 0 R] >>",
		"<< /FT /Btn /T (DT) /Parent 5 0 R /Type /Annot /Subtype /Widget /Rect [50 650 70 670] /P 3 0 R >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeFormPDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "template.pdf")
	if err := os.WriteFile(path, formPDF(), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	return path
}
