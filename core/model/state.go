package model

// StateManager tracks fitted state plus the shape seen during Fit.
// Estimators hold it by pointer (composition) instead of embedding BaseEstimator.
type StateManager struct {
	// Exported for gob encoding.
	Fitted    bool
	NFeatures int
	NSamples  int
}

// NewStateManager returns an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

func (s *StateManager) IsFitted() bool { return s.Fitted }

func (s *StateManager) SetFitted() { s.Fitted = true }

// SetDimensions records the training shape. nSamples is 0 when unknown,
// e.g. after loading from an artifact.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// Reset clears fitted state and dimensions.
func (s *StateManager) Reset() {
	*s = StateManager{}
}
