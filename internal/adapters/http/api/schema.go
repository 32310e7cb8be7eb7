package api

import (
	"net/http"

	"github.com/invopop/jsonschema"
	"github.com/okian/barrace/internal/domain/model"
)

// SchemaHandler serves the JSON Schema of the input document.
type SchemaHandler struct {
	schema *jsonschema.Schema
}

// NewSchemaHandler reflects the schema once.
func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{schema: RecordsSchema()}
}

// RecordsSchema returns the JSON Schema of a record document: an array of
// {date, affiliate, aum} objects.
func RecordsSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := r.Reflect(&[]model.Record{})
	s.Title = "Race records"
	s.Description = "Observations of entity values per time step"
	return s
}

// HandleSchema handles GET /schema requests.
func (h *SchemaHandler) HandleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_ = encodeIndented(w, h.schema)
}
