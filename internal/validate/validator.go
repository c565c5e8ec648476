package validate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/remitflat/internal/document"
	"github.com/ppiankov/remitflat/internal/extract"
	"github.com/ppiankov/remitflat/internal/model"
	"github.com/ppiankov/remitflat/internal/worker"
)

//go:embed remittance.schema.json
var remittanceSchema []byte

const schemaURL = "remittance.schema.json"

// Report describes how one source will be converted
type Report struct {
	Name     string
	Strategy model.ExtractionPath // Path the extractor will take
	Conforms bool                 // Document matches the remittance schema
	Problem  string               // First schema violation, empty when Conforms
	Err      error                // Source could not be read or parsed
}

// GetError implements worker.Result
func (r *Report) GetError() error {
	return r.Err
}

// Validator checks documents against the embedded remittance schema.
// It is informational: results never change how a document is extracted.
type Validator struct {
	schema     *jsonschema.Schema
	maxWorkers int
}

// NewValidator compiles the embedded schema
func NewValidator(maxWorkers int) (*Validator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(remittanceSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: schema, maxWorkers: maxWorkers}, nil
}

// Validate checks every source concurrently and returns reports in input order
func (v *Validator) Validate(ctx context.Context, sources []model.Source) []Report {
	jobs := make([]worker.Job, len(sources))
	for i, src := range sources {
		src := src
		jobs[i] = worker.JobFunc(func(ctx context.Context) worker.Result {
			r := v.Check(src)
			return &r
		})
	}

	results := worker.Run(ctx, v.maxWorkers, jobs)

	reports := make([]Report, len(sources))
	for i, r := range results {
		if r == nil {
			reports[i] = Report{Name: sources[i].Name, Err: ctx.Err()}
			continue
		}
		reports[i] = *r.(*Report)
	}
	return reports
}

// Check validates a single source
func (v *Validator) Check(src model.Source) Report {
	report := Report{Name: src.Name}

	if src.Err != nil {
		report.Err = fmt.Errorf("%s: %w", src.Name, src.Err)
		return report
	}

	doc, err := document.Parse(src.Data)
	if err != nil {
		report.Err = &model.ParseError{Source: src.Name, Err: err}
		return report
	}

	report.Strategy = model.PathGeneric
	if extract.IsRemittance(doc) {
		report.Strategy = model.PathRemittance
	}

	var instance any
	if err := json.Unmarshal(src.Data, &instance); err != nil {
		report.Err = &model.ParseError{Source: src.Name, Err: err}
		return report
	}

	if err := v.schema.Validate(instance); err != nil {
		report.Problem = firstViolation(err)
		return report
	}

	report.Conforms = true
	return report
}

// firstViolation follows the first cause down to the most specific message
func firstViolation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return location + ": " + ve.Message
}
