// Package predictor adapts a caller-supplied bandwidth predictor into the
// transportcc.Predictor contract, degrading gracefully when construction
// fails instead of propagating the error into the packet-arrival path.
package predictor

import (
	"github.com/sirupsen/logrus"

	"github.com/alphacc/receiver/internal/transportcc"
)

// Constructor builds a transportcc.Predictor, or fails (e.g. an ONNX model
// file that doesn't load). No ONNX runtime binding ships in this module:
// none appears anywhere in the retrieval pack this module was built from.
// onnxModelPath is carried through as a plain configuration string for a
// caller-supplied Constructor to interpret.
type Constructor func(onnxModelPath string) (transportcc.Predictor, error)

// New runs ctor and returns its predictor, or nil if construction failed.
// A nil predictor is a supported transportcc.NewProxy argument: BWE
// sendback is silently suppressed (spec.md §7, "Predictor initialization
// failure"). The failure is logged once, here, rather than on every
// subsequent packet arrival.
func New(ctor Constructor, onnxModelPath string, logger logrus.FieldLogger) transportcc.Predictor {
	if ctor == nil {
		return nil
	}

	p, err := ctor(onnxModelPath)
	if err != nil {
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		logger.WithError(err).WithField("onnx_model_path", onnxModelPath).
			Error("predictor construction failed, continuing without BWE sendback")
		return nil
	}
	return p
}
