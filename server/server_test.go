package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/medcost/insurance"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/preprocessing"
	"github.com/ezoic/medcost/router"
)

// sumModel predicts intercept + 1000 * sum(features).
type sumModel struct{ intercept float64 }

func (m sumModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		y := m.intercept
		for j := 0; j < c; j++ {
			y += 1000 * X.At(i, j)
		}
		out.Set(i, 0, y)
	}
	return out, nil
}

type funcPredictor func(ctx context.Context, req router.Request) (*router.Prediction, error)

func (f funcPredictor) Predict(ctx context.Context, req router.Request) (*router.Prediction, error) {
	return f(ctx, req)
}

func init() { gin.SetMode(gin.TestMode) }

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	pairs := map[router.Segment]router.Pair{}
	for i, seg := range router.Segments {
		scaler := preprocessing.NewStandardScalerDefault()
		// mean [40, 30, 1], scale [10, 10, 1]
		require.NoError(t, scaler.Fit(mat.NewDense(2, 3, []float64{30, 20, 0, 50, 40, 2})))
		pairs[seg] = router.Pair{Model: sumModel{intercept: float64(i) * 100}, Scaler: scaler}
	}
	reg, err := router.NewRegistry(pairs)
	require.NoError(t, err)
	return router.New(reg)
}

func newTestServer(t *testing.T, p Predictor) (*Server, *Metrics) {
	t.Helper()
	m := NewMetrics()
	s, err := New(p, Options{Mode: gin.TestMode, Metrics: m})
	require.NoError(t, err)
	return s, m
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, s *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, s, req)
}

func postJSON(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, s, req)
}

func validForm() url.Values {
	return url.Values{
		"age":      {"50"},
		"bmi":      {"35"},
		"children": {"2"},
		"sex":      {"female"},
		"smoker":   {"yes"},
		"region":   {"southeast"},
	}
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, newRouter(t))
	w := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Predict Insurance Charges")
	assert.Contains(t, body, "Force using general model (all data)")
	assert.Contains(t, body, `name="bmi" min="15" max="50" step="0.1"`)
	assert.Contains(t, body, `<option value="southwest">`)
	assert.NotContains(t, body, "Estimated Insurance Cost")
}

func TestFormPredict(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(url.Values)
		label  string
		charge string
	}{
		// [1, 0.5, 1] scaled, female, smoker, southeast: 5.5 * 1000
		{"smoker", func(url.Values) {}, router.LabelSmoker, "$5,500.00"},
		{"nonsmoker", func(v url.Values) { v.Set("smoker", "no") }, router.LabelNonsmoker, "$4,600.00"},
		{"override", func(v url.Values) { v.Set("use_general_model", "true") }, router.LabelOverride, "$5,700.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, newRouter(t))
			form := validForm()
			tt.edit(form)

			w := postForm(t, s, form)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.label)
			assert.Contains(t, w.Body.String(), "Estimated Insurance Cost: "+tt.charge)
		})
	}
}

func TestFormPredict_InvalidInput(t *testing.T) {
	s, m := newTestServer(t, newRouter(t))

	form := validForm()
	form.Set("age", "12")
	w := postForm(t, s, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "Estimated Insurance Cost")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues(ReasonOutOfRange)))

	form = validForm()
	form.Set("bmi", "heavy")
	w = postForm(t, s, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid form")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues(ReasonBind)))

	// the server keeps answering after rejected input
	w = postForm(t, s, validForm())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIPredict(t *testing.T) {
	s, m := newTestServer(t, newRouter(t))

	w := postJSON(t, s, `{"age":50,"bmi":35,"children":2,"sex":"female","smoker":"yes","region":"southeast"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, router.SegmentSmokers, resp.Segment)
	assert.Equal(t, router.LabelSmoker, resp.Label)
	assert.False(t, resp.Fallback)
	assert.InDelta(t, 5500.0, resp.Charges, 1e-9)
	assert.Equal(t, "$5,500.00", resp.Formatted)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, []float64{1, 0.5, 1, 1, 1, 0, 1, 0}, resp.Features)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
	_, err := uuid.Parse(resp.RequestID)
	assert.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("smokers")))
}

func TestAPIPredict_Override(t *testing.T) {
	s, _ := newTestServer(t, newRouter(t))

	w := postJSON(t, s, `{"age":50,"bmi":35,"children":2,"sex":"female","smoker":"no","region":"southeast","use_general_model":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, router.SegmentAll, resp.Segment)
	assert.Equal(t, router.LabelOverride, resp.Label)
}

func TestAPIPredict_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"unknown region", `{"age":50,"bmi":35,"children":2,"sex":"female","smoker":"yes","region":"midwest"}`, http.StatusBadRequest, ReasonUnknownCategory},
		{"unknown smoker", `{"age":50,"bmi":35,"children":2,"sex":"female","smoker":"maybe","region":"southeast"}`, http.StatusBadRequest, ReasonUnknownCategory},
		{"children out of range", `{"age":50,"bmi":35,"children":11,"sex":"female","smoker":"yes","region":"southeast"}`, http.StatusBadRequest, ReasonOutOfRange},
		{"malformed", `{"age":`, http.StatusBadRequest, ""},
		{"wrong type", `{"age":"fifty"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, newRouter(t))
			w := postJSON(t, s, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, tt.reason, body["reason"])
		})
	}
}

func TestAPIPredict_InternalError(t *testing.T) {
	s, m := newTestServer(t, funcPredictor(func(context.Context, router.Request) (*router.Prediction, error) {
		return nil, medErrors.NewArtifactError("all", "", medErrors.New("segment not in registry"))
	}))

	w := postJSON(t, s, `{"age":50,"bmi":35,"children":2,"sex":"female","smoker":"yes","region":"southeast"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues(ReasonInternal)))
}

func TestRecovery(t *testing.T) {
	s, _ := newTestServer(t, funcPredictor(func(context.Context, router.Request) (*router.Prediction, error) {
		panic("boom")
	}))

	w := postJSON(t, s, `{"age":50,"bmi":35,"children":2,"sex":"female","smoker":"yes","region":"southeast"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, newRouter(t))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health/self", nil)
	req.Header.Set(RequestIDHeader, id)
	w := do(t, s, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health/self", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = do(t, s, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, newRouter(t))
	w := do(t, s, httptest.NewRequest(http.MethodGet, "/health/self", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"true"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, newRouter(t))
	require.Equal(t, http.StatusOK, postForm(t, s, validForm()).Code)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `medcost_predictions_total{segment="smokers"} 1`)
	assert.Contains(t, string(body), "medcost_prediction_duration_seconds_bucket")
}

func TestNew_DefaultBounds(t *testing.T) {
	s, _ := newTestServer(t, newRouter(t))
	assert.Equal(t, insurance.DefaultBounds, s.bounds)
}
