package ml

import (
	"errors"
	"fmt"
	"math"
)

// Classifier is the fitted churn model: a linear scorer over the pipeline's
// feature columns with the decision threshold chosen at training time.
// Predict is deterministic and side-effect free; the label is always derived
// from the model's own threshold so label and probability can never disagree.
type Classifier struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Coefficients []float64 `json:"coefficients"` // aligned to the pipeline column order
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold"` // native decision boundary
}

// Validate checks the classifier state so a corrupt artifact is rejected at
// load time.
func (c *Classifier) Validate() error {
	if c.Name == "" || c.Version == "" {
		return errors.New("classifier: missing name or version")
	}
	if len(c.Coefficients) == 0 {
		return errors.New("classifier: empty coefficient vector")
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("classifier: threshold %v outside (0,1)", c.Threshold)
	}
	return nil
}

// Predict scores a feature vector, returning the thresholded class label
// (1 = churn) and the estimated probability of the churn class in [0,1].
func (c *Classifier) Predict(features []float64) (int, float64, error) {
	if len(features) != len(c.Coefficients) {
		return 0, 0, fmt.Errorf("classifier: feature width %d does not match model width %d",
			len(features), len(c.Coefficients))
	}
	z := c.Intercept
	for i, w := range c.Coefficients {
		z += w * features[i]
	}
	p := sigmoid(z)
	label := 0
	if p >= c.Threshold {
		label = 1
	}
	return label, p, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
