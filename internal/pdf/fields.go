package pdf

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-dtdict/internal/fdf"
)

// TemplateField is one terminal AcroForm field of a receipt template.
type TemplateField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// maxFieldDepth bounds the /Kids recursion on malformed forms.
const maxFieldDepth = 16

// TemplateFields lists the fully qualified names of the form fields in the
// PDF at path.
func TemplateFields(path string) ([]TemplateField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	return TemplateFieldsFromReader(f)
}

// TemplateFieldsFromReader is TemplateFields for an open document.
func TemplateFieldsFromReader(rs io.ReadSeeker) ([]TemplateField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := root.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroForm, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroForm == nil {
		return nil, nil
	}

	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	var out []TemplateField
	for _, obj := range fieldsArray {
		collectFields(ctx, obj, "", "", 0, &out)
	}
	return out, nil
}

// collectFields walks a field and its /Kids. Partial names are joined with
// dots; the field type is inherited from the nearest ancestor declaring /FT.
func collectFields(ctx *model.Context, obj types.Object, parent, inheritedType string, depth int, out *[]TemplateField) {
	if depth > maxFieldDepth {
		return
	}
	d, err := ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		return
	}

	name := parent
	if t, found := d.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(t, model.V10, nil); err == nil && partial != "" {
			if name != "" {
				name += "."
			}
			name += partial
		}
	}

	fieldType := inheritedType
	if ftObj, found := d.Find("FT"); found {
		if ft, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			fieldType = string(ft)
		}
	}

	kids, hasKids := d.Find("Kids")
	if hasKids {
		arr, err := ctx.DereferenceArray(kids)
		if err == nil {
			named := 0
			for _, kid := range arr {
				kd, err := ctx.DereferenceDict(kid)
				if err != nil || kd == nil {
					continue
				}
				if _, ok := kd.Find("T"); ok {
					named++
				}
			}
			// Kids without /T are widgets of this field, not sub-fields.
			if named > 0 {
				for _, kid := range arr {
					collectFields(ctx, kid, name, fieldType, depth+1, out)
				}
				return
			}
		}
	}

	if name != "" {
		*out = append(*out, TemplateField{Name: name, Type: describeFieldType(fieldType)})
	}
}

func describeFieldType(ft string) string {
	switch ft {
	case "Tx":
		return "text"
	case "Btn":
		return "button"
	case "Ch":
		return "choice"
	case "Sig":
		return "signature"
	default:
		return "unknown"
	}
}

// MissingTags returns the buffer tags the template does not define, sorted.
func MissingTags(buf *fdf.Buffer, template []TemplateField) []string {
	defined := make(map[string]bool, len(template))
	for _, f := range template {
		defined[f.Name] = true
	}

	seen := make(map[string]bool)
	var missing []string
	for _, e := range buf.Entries() {
		if defined[e.Tag] || seen[e.Tag] {
			continue
		}
		seen[e.Tag] = true
		missing = append(missing, e.Tag)
	}
	sort.Strings(missing)
	return missing
}
