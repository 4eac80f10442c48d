package telemetry

// Default pollution thresholds.
const (
	DefaultCODThreshold = 100.0
	DefaultPHThreshold  = 4.0
)

// Classifier decides whether a measurement indicates pollution.
// Implementations must be pure: the same input always yields the same output.
type Classifier interface {
	Classify(ph, cod float64) bool
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ph, cod float64) bool

// Classify calls f(ph, cod).
func (f ClassifierFunc) Classify(ph, cod float64) bool {
	return f(ph, cod)
}

// ThresholdClassifier flags pollution when COD is above CODThreshold or pH
// is below PHThreshold. Both comparisons are strict.
type ThresholdClassifier struct {
	CODThreshold float64
	PHThreshold  float64
}

// DefaultClassifier returns a ThresholdClassifier with the default limits.
func DefaultClassifier() ThresholdClassifier {
	return ThresholdClassifier{
		CODThreshold: DefaultCODThreshold,
		PHThreshold:  DefaultPHThreshold,
	}
}

// Classify implements Classifier.
func (c ThresholdClassifier) Classify(ph, cod float64) bool {
	return cod > c.CODThreshold || ph < c.PHThreshold
}

// Decide builds the verdict for r. The returned verdict has no ID; the
// store assigns one on append.
func Decide(c Classifier, r Reading, timestamp string) Verdict {
	polluted := c.Classify(r.PH, r.COD)
	return Verdict{
		Timestamp:   timestamp,
		RawID:       r.ID,
		IsPollution: polluted,
		GateOpen:    polluted,
	}
}
