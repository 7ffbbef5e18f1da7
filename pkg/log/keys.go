package log

// Standard field keys.
const (
	ModelNameKey  = "model_name"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	DurationMsKey = "duration_ms"
	PredsKey      = "predictions"
	SegmentKey    = "segment"
	PathKey       = "path"
	RequestIDKey  = "request_id"
)

// Operation values for OperationKey.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationLoad      = "load"
	OperationSave      = "save"
)

// Phase values for PhaseKey.
const (
	PhaseTraining   = "training"
	PhaseInference  = "inference"
	PhaseEvaluation = "evaluation"
	PhaseStartup    = "startup"
)
