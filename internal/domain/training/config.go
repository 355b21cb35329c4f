// Package training defines the configuration and reporting types of the
// forward and inverse training stages.
package training

// ForwardConfig configures gradient descent on the forward model's local
// models and the residual correction fits that follow it.
type ForwardConfig struct {
	Epochs       int     `json:"epochs" toml:"epochs"`
	LearningRate float64 `json:"learningRate" toml:"learning_rate"`
	Tolerance    float64 `json:"tolerance" toml:"tolerance"`
	Workers      int     `json:"workers" toml:"workers"`
}

// DefaultForwardConfig returns the forward training defaults.
func DefaultForwardConfig() ForwardConfig {
	return ForwardConfig{
		Epochs:       200,
		LearningRate: 0.01,
		Tolerance:    1e-4,
		Workers:      4,
	}
}

// InverseConfig configures policy search against the frozen forward model.
// Preview is the number of future reference samples the policy sees;
// Perturbation is the step of the simultaneous-perturbation gradient
// estimate.
type InverseConfig struct {
	Epochs       int     `json:"epochs" toml:"epochs"`
	LearningRate float64 `json:"learningRate" toml:"learning_rate"`
	Preview      int     `json:"preview" toml:"preview"`
	Perturbation float64 `json:"perturbation" toml:"perturbation"`
	Seed         int64   `json:"seed" toml:"seed"`
}

// DefaultInverseConfig returns the inverse training defaults.
func DefaultInverseConfig() InverseConfig {
	return InverseConfig{
		Epochs:       100,
		LearningRate: 0.05,
		Preview:      10,
		Perturbation: 1e-3,
		Seed:         1,
	}
}

// Report summarizes one training run.
type Report struct {
	Epochs     int                `json:"epochs"`
	FinalLoss  float64            `json:"finalLoss"`
	PerChannel map[string]float64 `json:"perChannel,omitempty"`
	Converged  bool               `json:"converged"`
}
