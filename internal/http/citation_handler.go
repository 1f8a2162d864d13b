package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/citation"
)

type CitationHandler struct {
	gen *citation.Generator
}

func NewCitationHandler(gen *citation.Generator) *CitationHandler {
	if gen == nil {
		gen = citation.NewGenerator(nil)
	}
	return &CitationHandler{gen: gen}
}

type citationResponse struct {
	Citations []citationEntry `json:"citations"`
}

type citationEntry struct {
	Style citation.Style `json:"style"`
	Text  string         `json:"text"`
	HTML  string         `json:"html"`
}

// Generate renders the posted record in every style, or only the one named by
// ?style=. The record itself is not validated; an empty body yields citations
// with empty fields.
func (h *CitationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var data citation.Data
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var all []citation.Citation
	if name := r.URL.Query().Get("style"); name != "" {
		style, ok := citation.ParseStyle(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown citation style")
			return
		}
		all = []citation.Citation{{Style: style, Text: h.gen.Format(style, data)}}
	} else {
		all = h.gen.All(data)
	}
	out := citationResponse{Citations: make([]citationEntry, 0, len(all))}
	for _, c := range all {
		out.Citations = append(out.Citations, citationEntry{
			Style: c.Style,
			Text:  c.Text,
			HTML:  citation.Display(c.Style, c.Text),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
