package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/focus/internal/domain"
)

// Model is the optional statistical fallback. Implementations receive the
// encoded feature vector and return a label with its class probability. A nil
// Model simply disables the fallback tier; errors degrade to the duration
// heuristic and must never abort classification.
type Model interface {
	Predict(features []float64) (domain.Label, float64, error)
}

// modelRule invokes the statistical model, degrading to a short-threshold
// duration heuristic when encoding or prediction fails.
type modelRule struct {
	model          Model
	errorThreshold int
}

func (r modelRule) Match(app, tab string, duration int) (Result, bool) {
	features := EncodeFeatures(app, tab, duration)
	label, confidence, err := r.model.Predict(features)
	if err != nil {
		label := domain.LabelDistracted
		if duration > r.errorThreshold {
			label = domain.LabelFocused
		}
		return Result{Label: label, Confidence: 0.65, Reason: "Model error fallback"}, true
	}
	return Result{Label: label, Confidence: confidence, Reason: "Model prediction"}, true
}

// HTTPModel calls an external model-serving endpoint. Requests are
// time-bounded; any transport or decode failure surfaces as a prediction
// error and is absorbed by the model rule's degradation path.
type HTTPModel struct {
	client *http.Client
	url    string
}

// NewHTTPModel constructs a client for the given predict endpoint.
func NewHTTPModel(endpoint string, timeout time.Duration) *HTTPModel {
	return &HTTPModel{
		client: &http.Client{Timeout: timeout},
		url:    endpoint,
	}
}

// Predict posts the feature vector and decodes the predicted label and
// class probability.
func (m *HTTPModel) Predict(features []float64) (domain.Label, float64, error) {
	body, err := json.Marshal(map[string]any{"features": features})
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("model endpoint error: %s", data)
	}

	var payload struct {
		Label       string  `json:"label"`
		Probability float64 `json:"probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, err
	}

	label := domain.Label(payload.Label)
	if label != domain.LabelFocused && label != domain.LabelDistracted {
		return "", 0, fmt.Errorf("unknown label from model: %q", payload.Label)
	}
	if payload.Probability < 0 || payload.Probability > 1 {
		return "", 0, fmt.Errorf("probability out of range: %f", payload.Probability)
	}
	return label, payload.Probability, nil
}
