package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ezoic/medcost/insurance"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/router"
)

// PredictInput is the body of POST /api/v1/predict and the fields of the form.
type PredictInput struct {
	insurance.Record
	Override bool `json:"use_general_model" form:"use_general_model"`
}

// PredictResponse is the JSON answer of POST /api/v1/predict.
type PredictResponse struct {
	Segment   router.Segment `json:"segment"`
	Label     string         `json:"label"`
	Fallback  bool           `json:"fallback"`
	Charges   float64        `json:"charges"`
	Formatted string         `json:"formatted"`
	Currency  string         `json:"currency"`
	Raw       float64        `json:"raw"`
	Features  []float64      `json:"features"`
	RequestID string         `json:"request_id"`
}

// pageData feeds templates/index.html.
type pageData struct {
	Form    PredictInput
	Bounds  insurance.Bounds
	Sexes   []string
	Smokers []string
	Regions []string
	Result  *router.Prediction
	Error   string
}

// defaultForm matches the initial values of the original form.
var defaultForm = PredictInput{
	Record: insurance.Record{
		Age:      30,
		BMI:      25.0,
		Children: 1,
		Sex:      insurance.SexMale,
		Smoker:   insurance.SmokerYes,
		Region:   insurance.RegionNortheast,
	},
}

func (s *Server) page(form PredictInput) pageData {
	return pageData{
		Form:    form,
		Bounds:  s.bounds,
		Sexes:   insurance.SexCategories,
		Smokers: []string{string(insurance.SmokerYes), string(insurance.SmokerNo)},
		Regions: insurance.RegionCategories,
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(defaultForm))
}

func (s *Server) handleFormPredict(c *gin.Context) {
	var in PredictInput
	if err := c.ShouldBind(&in); err != nil {
		s.metrics.Errors.WithLabelValues(ReasonBind).Inc()
		data := s.page(in)
		data.Error = "Invalid form: " + err.Error()
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}

	data := s.page(in)
	p, err := s.predict(c.Request.Context(), in)
	if err != nil {
		status, _ := classify(err)
		data.Error = err.Error()
		c.HTML(status, "index.html", data)
		return
	}
	data.Result = p
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) handleAPIPredict(c *gin.Context) {
	var in PredictInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.metrics.Errors.WithLabelValues(ReasonBind).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	p, err := s.predict(c.Request.Context(), in)
	if err != nil {
		status, reason := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "reason": reason})
		return
	}

	c.JSON(http.StatusOK, PredictResponse{
		Segment:   p.Segment,
		Label:     p.Label,
		Fallback:  p.Fallback,
		Charges:   p.Charges.Float(),
		Formatted: p.Formatted(),
		Currency:  p.Charges.Currency().Code(),
		Raw:       p.Raw,
		Features:  p.Features,
		RequestID: c.GetString(requestIDKey),
	})
}

func (s *Server) predict(ctx context.Context, in PredictInput) (*router.Prediction, error) {
	start := time.Now()
	p, err := s.predictor.Predict(ctx, router.Request{Record: in.Record, Override: in.Override})
	if err != nil {
		_, reason := classify(err)
		s.metrics.Errors.WithLabelValues(reason).Inc()
		return nil, err
	}
	seg := string(p.Segment)
	s.metrics.Predictions.WithLabelValues(seg).Inc()
	s.metrics.Duration.WithLabelValues(seg).Observe(time.Since(start).Seconds())
	return p, nil
}

// classify maps a router error to an HTTP status and a metrics reason.
// Invalid input is the caller's fault and never fatal to the server.
func classify(err error) (int, string) {
	switch {
	case medErrors.Is(err, medErrors.ErrOutOfRange):
		return http.StatusBadRequest, ReasonOutOfRange
	case medErrors.Is(err, medErrors.ErrUnknownCategory):
		return http.StatusBadRequest, ReasonUnknownCategory
	case medErrors.Is(err, context.Canceled), medErrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ReasonCanceled
	default:
		return http.StatusInternalServerError, ReasonInternal
	}
}
