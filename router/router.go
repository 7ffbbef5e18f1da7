package router

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/medcost/insurance"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/currency"
	"github.com/ezoic/medcost/pkg/log"
)

// Labels reported with every selection.
const (
	LabelOverride  = "Using: General model (all data)"
	LabelSmoker    = "Using: Smoker model"
	LabelNonsmoker = "Using: Non-smoker model"
	LabelFallback  = "Using: General model (fallback)"
)

// Selection is the segment chosen for a request and its human-readable label.
type Selection struct {
	Segment  Segment `json:"segment"`
	Label    string  `json:"label"`
	Fallback bool    `json:"fallback,omitempty"`
}

// Select applies the routing policy, first match wins:
//
//  1. override set: all
//  2. smoker "yes": smokers
//  3. smoker "no": nonsmokers
//  4. anything else: all (fallback)
func Select(smoker insurance.Smoker, override bool) Selection {
	switch {
	case override:
		return Selection{Segment: SegmentAll, Label: LabelOverride}
	case smoker == insurance.SmokerYes:
		return Selection{Segment: SegmentSmokers, Label: LabelSmoker}
	case smoker == insurance.SmokerNo:
		return Selection{Segment: SegmentNonsmokers, Label: LabelNonsmoker}
	default:
		return Selection{Segment: SegmentAll, Label: LabelFallback, Fallback: true}
	}
}

// Request is one prediction request.
type Request struct {
	Record insurance.Record
	// Override forces the general (all data) model.
	Override bool
}

// Prediction is the routed result.
type Prediction struct {
	Selection
	// Features is the vector passed to the model, in insurance.FeatureNames order.
	Features []float64
	// Raw is the model output before clamping.
	Raw float64
	// Charges is Raw rounded to cents and clamped at zero.
	Charges currency.Money
}

// Formatted renders the charge, e.g. "$12,345.67".
func (p *Prediction) Formatted() string { return p.Charges.Format() }

// Router answers prediction requests against a read-only Registry.
// It holds no per-request state and is safe for concurrent use.
type Router struct {
	registry *Registry
	currency currency.Currency
	bounds   insurance.Bounds
	logger   log.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithCurrency sets the currency of reported charges (default USD).
func WithCurrency(c currency.Currency) Option {
	return func(r *Router) { r.currency = c }
}

// WithBounds replaces insurance.DefaultBounds.
func WithBounds(b insurance.Bounds) Option {
	return func(r *Router) { r.bounds = b }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates a Router over reg.
func New(reg *Registry, opts ...Option) *Router {
	r := &Router{
		registry: reg,
		currency: currency.USD,
		bounds:   insurance.DefaultBounds,
		logger:   log.GetLoggerWithName("router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Predict selects a segment, encodes the record with the shared encoding table,
// scales [age, bmi, children] with one call to the segment scaler's Transform,
// assembles the 8-entry feature vector and runs the segment model.
//
// Errors:
//   - OutOfRangeError: a numeric field is outside the router bounds
//   - UnknownCategoryError: a categorical value is not recognised
//   - ArtifactError: the registry has no pair for the selected segment
func (r *Router) Predict(ctx context.Context, req Request) (_ *Prediction, err error) {
	defer medErrors.Recover(&err, "Router.Predict")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	rec := req.Record.Normalize()
	sel := Select(rec.Smoker, req.Override)

	if err := rec.ValidateWithin(r.bounds); err != nil {
		return nil, err
	}

	pair, ok := r.registry.Pair(sel.Segment)
	if !ok {
		return nil, medErrors.NewArtifactError(string(sel.Segment), "", medErrors.New("segment not in registry"))
	}

	numeric, categorical, err := insurance.EncodeRecord(rec)
	if err != nil {
		return nil, err
	}

	scaled, err := pair.Scaler.Transform(mat.NewDense(1, insurance.NumNumeric, numeric[:]))
	if err != nil {
		return nil, medErrors.Wrapf(err, "scale %s", sel.Segment)
	}
	if rows, cols := scaled.Dims(); rows != 1 || cols != insurance.NumNumeric {
		return nil, medErrors.NewDimensionError("Router.Predict", insurance.NumNumeric, cols, 1)
	}

	features, err := insurance.AssembleFeatures(mat.Row(nil, 0, scaled), categorical)
	if err != nil {
		return nil, err
	}

	out, err := pair.Model.Predict(mat.NewDense(1, insurance.NumFeatures, features))
	if err != nil {
		return nil, medErrors.Wrapf(err, "predict %s", sel.Segment)
	}
	raw := out.At(0, 0)

	p := &Prediction{
		Selection: sel,
		Features:  features,
		Raw:       raw,
		Charges:   currency.FromFloat(raw, r.currency).ClampZero(),
	}

	r.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SegmentKey, string(sel.Segment),
		"raw", raw,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return p, nil
}
