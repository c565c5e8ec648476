package extract

import (
	"fmt"

	"github.com/ppiankov/remitflat/internal/document"
	"github.com/ppiankov/remitflat/internal/model"
)

// Extractor produces one row per (claim, activity) pair from remittance
// documents and falls back to generic flattening for anything else.
type Extractor struct {
	headers   []Header
	flattener *Flattener
}

// NewExtractor creates an extractor over the standard HeaderMap
func NewExtractor() *Extractor {
	return &Extractor{
		headers:   HeaderMap,
		flattener: NewFlattener(),
	}
}

// Result describes how a document was turned into rows
type Result struct {
	Rows       []model.Row
	Path       model.ExtractionPath
	Claims     int      // Claims seen on the remittance path
	Collisions []string // Flattened keys written more than once (generic path)
}

// Extract converts doc into rows
func (e *Extractor) Extract(doc document.Document) ([]model.Row, error) {
	res, err := e.Analyze(doc)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Analyze converts doc into rows and reports which path produced them.
// Missing fields are never an error: a Claim or Activity element that is a
// scalar or an array simply has none of the mapped fields. A null element is
// rejected, since it stands for a record that was never filled in.
func (e *Extractor) Analyze(doc document.Document) (Result, error) {
	claims, ok := remittanceClaims(doc)
	if !ok {
		rows, collisions := e.flattener.FlattenWithCollisions(doc)
		return Result{Rows: rows, Path: model.PathGeneric, Collisions: collisions}, nil
	}

	// Document-level fields are the same on every row
	scope := Scope{Root: doc}
	base := make([]any, len(e.headers))
	for i, h := range e.headers {
		if h.Path.level() == 0 {
			base[i] = h.Path.ResolveIn(scope)
		}
	}

	var rows []model.Row
	for i, claim := range claims {
		if claim.Kind() == document.Null {
			return Result{}, fmt.Errorf("%w: Claim[%d] is null", model.ErrMalformedDocument, i)
		}
		scope.Claim, scope.HasClaim = claim, true

		var activities []document.Document
		if act, ok := claim.Field("Activity"); ok && act.IsArray() {
			activities = act.Elements()
		}

		if len(activities) == 0 {
			scope.Activity, scope.HasActivity = document.Document{}, false
			rows = append(rows, e.claimRow(scope, base))
			continue
		}
		for j, activity := range activities {
			if activity.Kind() == document.Null {
				return Result{}, fmt.Errorf("%w: Claim[%d].Activity[%d] is null",
					model.ErrMalformedDocument, i, j)
			}
			scope.Activity, scope.HasActivity = activity, true
			rows = append(rows, e.activityRow(scope, base))
		}
	}

	return Result{Rows: rows, Path: model.PathRemittance, Claims: len(claims)}, nil
}

// IsRemittance reports whether doc takes the remittance path
func IsRemittance(doc document.Document) bool {
	_, ok := remittanceClaims(doc)
	return ok
}

// remittanceClaims returns Remittance.Claim when it exists and is an array
func remittanceClaims(doc document.Document) ([]document.Document, bool) {
	remittance, ok := doc.Field("Remittance")
	if !ok {
		return nil, false
	}
	claim, ok := remittance.Field("Claim")
	if !ok || !claim.IsArray() {
		return nil, false
	}
	return claim.Elements(), true
}

func (e *Extractor) activityRow(scope Scope, base []any) model.Row {
	row := model.NewRow(len(e.headers))
	for i, h := range e.headers {
		row.Set(h.Name, e.value(h, i, scope, base))
	}
	return row
}

func (e *Extractor) claimRow(scope Scope, base []any) model.Row {
	row := model.NewRow(len(e.headers))
	for i, h := range e.headers {
		if h.Path.IsActivityLevel() {
			continue
		}
		row.Set(h.Name, e.value(h, i, scope, base))
	}
	return row
}

func (e *Extractor) value(h Header, i int, scope Scope, base []any) any {
	if h.Path.level() == 0 {
		return base[i]
	}
	return h.Path.ResolveIn(scope)
}
