// Package log defines standard attribute keys for the classification pipeline.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that log lines can be filtered by category.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the model type, e.g. "CatDogCNN".
	ModelNameKey = "model.name"

	// ModelPathKey is the file system path of a persisted model artifact.
	ModelPathKey = "model.path"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "save", "load", "total"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "dataset", "neural", "pipeline", "checkout"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of values per sample (H*W*C).
	FeaturesKey = "data.features"

	// ClassesKey lists or counts the class labels.
	ClassesKey = "data.classes"

	// ShapeKey records an image shape as [height width channels].
	ShapeKey = "data.shape"

	// BatchSizeKey indicates the size of mini-batches.
	BatchSizeKey = "data.batch_size"

	// PathKey is a file or directory path being processed.
	PathKey = "data.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records training accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LossKey records training loss.
	LossKey = "metrics.loss"

	// ValAccuracyKey records validation accuracy in [0, 1].
	ValAccuracyKey = "metrics.val_accuracy"

	// ValLossKey records validation loss.
	ValLossKey = "metrics.val_loss"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"

	// EpochsKey records the total number of epochs.
	EpochsKey = "training.epochs"
)

// Prediction and Output Context
const (
	// LabelKey records a predicted class label.
	LabelKey = "preds.label"

	// ConfidenceKey records prediction confidence in [0, 1].
	ConfidenceKey = "preds.confidence"

	// TotalKey records an order total computed by the checkout package.
	TotalKey = "checkout.total"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the optimizer learning rate.
	LearningRateKey = "hyperparams.learning_rate"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error Context
const (
	// ErrorKey carries the error value passed to Logger.Error.
	ErrorKey = "error"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationSave    = "save"
	OperationLoad    = "load"
	OperationTotal   = "total"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
