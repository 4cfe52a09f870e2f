// Package categories holds the static catalogue of deal document
// categories and their upload policy.
package categories

import (
	"path"
	"slices"
	"strings"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

// Accepted MIME families.
var (
	pdf   = []string{"application/pdf"}
	word  = []string{"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
	excel = []string{"application/vnd.ms-excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
	csv   = []string{"text/csv"}
	image = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

	pdfExt   = []string{".pdf"}
	wordExt  = []string{".doc", ".docx"}
	excelExt = []string{".xls", ".xlsx"}
	csvExt   = []string{".csv"}
	imageExt = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
)

func join(parts ...[]string) []string {
	return slices.Concat(parts...)
}

// Canonical returns the canonical category set in display order.
func Canonical() []models.Category {
	return []models.Category{
		{
			Key: "cim", Label: "CIM", Description: "Confidential information memorandum",
			Required: true, MaxFiles: 1,
			Accept: join(pdf, word), Extensions: join(pdfExt, wordExt),
		},
		{
			Key: "financials", Label: "Financials", Description: "Financial statements, models and projections",
			Required: true, MaxFiles: 10,
			Accept: join(pdf, excel, csv), Extensions: join(pdfExt, excelExt, csvExt),
		},
		{
			Key: "legal", Label: "Legal", Description: "Corporate, contract and compliance documents",
			Required: true, MaxFiles: 20,
			Accept: join(pdf, word), Extensions: join(pdfExt, wordExt),
		},
		{
			Key: "due_diligence", Label: "Due Diligence", Description: "Supporting material for buyer due diligence",
			Required: true, MaxFiles: 15,
		},
		{
			Key: "nda", Label: "NDA", Description: "Signed non-disclosure agreements",
			MaxFiles: 5,
			Accept:   join(pdf, word), Extensions: join(pdfExt, wordExt),
		},
		{
			Key: "buyer_notes", Label: "Buyer Notes", Description: "Notes and correspondence with buyers",
			MaxFiles: 10,
			Accept:   join(pdf, word, image), Extensions: join(pdfExt, wordExt, imageExt),
		},
		{
			Key: "other", Label: "Other", Description: "Anything that does not fit elsewhere",
			MaxFiles: 20,
		},
	}
}

// Registry is an immutable lookup table of categories.
type Registry struct {
	list  []models.Category
	byKey map[string]models.Category
}

// NewRegistry builds a registry over cats. A nil slice yields the canonical set.
func NewRegistry(cats []models.Category) *Registry {
	if cats == nil {
		cats = Canonical()
	}
	r := &Registry{list: cats, byKey: make(map[string]models.Category, len(cats))}
	for _, c := range cats {
		r.byKey[c.Key] = c
	}
	return r
}

// Categories returns a copy of the categories in display order.
func (r *Registry) Categories() []models.Category {
	return slices.Clone(r.list)
}

func (r *Registry) Get(key string) (models.Category, bool) {
	c, ok := r.byKey[key]
	return c, ok
}

// Label returns the category label, or the key itself when unknown.
func (r *Registry) Label(key string) string {
	if c, ok := r.byKey[key]; ok {
		return c.Label
	}
	return key
}

// DocumentsFor filters docs down to those filed under key.
func DocumentsFor(docs []models.Document, key string) []models.Document {
	var out []models.Document
	for _, d := range docs {
		if d.Category == key {
			out = append(out, d)
		}
	}
	return out
}

// Accepts reports whether a file with the given name and MIME type may be
// filed under c. A category with no Accept list takes any type. The MIME
// type wins when it is known; the extension is the fallback.
func Accepts(c models.Category, name, mimeType string) bool {
	if len(c.Accept) == 0 && len(c.Extensions) == 0 {
		return true
	}
	if mt := baseMime(mimeType); mt != "" && mt != "application/octet-stream" {
		if slices.Contains(c.Accept, mt) {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(name))
	return ext != "" && slices.Contains(c.Extensions, ext)
}

func baseMime(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
