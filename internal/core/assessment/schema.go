package assessment

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

//go:embed schema.json
var assessmentSchemaJSON []byte

const assessmentSchemaURL = "https://claims.schemas.local/claim-assessment.schema.json"

// OutputSchema validates the wire form of a ClaimAssessment.
type OutputSchema struct {
	schema *jsonschema.Schema
}

func NewOutputSchema() (*OutputSchema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(assessmentSchemaURL, bytes.NewReader(assessmentSchemaJSON)); err != nil {
		return nil, fmt.Errorf("load assessment schema: %w", err)
	}
	compiled, err := c.Compile(assessmentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile assessment schema: %w", err)
	}
	return &OutputSchema{schema: compiled}, nil
}

func (s *OutputSchema) Validate(a *domain.ClaimAssessment) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode assessment: %w", err)
	}
	return s.schema.Validate(doc)
}
