package dynamics

import "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/fuzzy"

// CorrectionFamily selects the nonlinearity fitted on top of a channel's
// combined prediction.
type CorrectionFamily string

const (
	// CorrectionNone applies no residual correction.
	CorrectionNone CorrectionFamily = "none"
	// CorrectionBias fits a constant bias on the residual.
	CorrectionBias CorrectionFamily = "bias"
	// CorrectionQuadratic fits f(d) = d + a*d^2. Even-symmetric: cannot
	// represent asymmetric behavior.
	CorrectionQuadratic CorrectionFamily = "quadratic"
	// CorrectionCubic fits f(d) = d + a*d^3. Preferred when asymmetric
	// behavior must be captured.
	CorrectionCubic CorrectionFamily = "cubic"
	// CorrectionTanhState fits the recurrent update x = tanh(A*x + B*u + b)
	// with the two-phase freeze protocol.
	CorrectionTanhState CorrectionFamily = "tanh_state"
)

// ActivationKind identifies a gate activation variant in configuration.
type ActivationKind string

const (
	ActivationConstant   ActivationKind = "constant"
	ActivationMembership ActivationKind = "membership"
	ActivationFunction   ActivationKind = "function"
	ActivationLearned    ActivationKind = "learned"
)

// LocalModelConfig declares one FIR local model: a trainable weight vector
// over a time window of a single signal channel.
type LocalModelConfig struct {
	// Name identifies the model within the bank.
	Name string `json:"name" toml:"name"`

	// Channel is the signal the model reads (e.g. "throttle", "vx").
	Channel string `json:"channel" toml:"channel"`

	// Window is the number of samples the model sees.
	Window int `json:"window" toml:"window"`
}

// ActivationConfig declares a gate activation.
type ActivationConfig struct {
	Kind ActivationKind `json:"kind" toml:"kind"`

	// Value is the constant gate value (constant kind).
	Value float64 `json:"value,omitempty" toml:"value,omitempty"`

	// Index selects the fuzzy activation (membership kind).
	Index int `json:"index,omitempty" toml:"index,omitempty"`

	// Channel and Function describe a direct membership evaluation on a
	// signal channel (function kind) or the input of a learned gate.
	Channel  string                   `json:"channel,omitempty" toml:"channel,omitempty"`
	Function fuzzy.MembershipFunction `json:"function,omitempty" toml:"function,omitempty"`

	// Slope and Offset initialize a learned sigmoid gate (learned kind).
	Slope  float64 `json:"slope,omitempty" toml:"slope,omitempty"`
	Offset float64 `json:"offset,omitempty" toml:"offset,omitempty"`
}

// GateConfig pairs a local model with an activation and a fixed sign.
type GateConfig struct {
	Name       string           `json:"name" toml:"name"`
	Model      string           `json:"model" toml:"model"`
	Sign       float64          `json:"sign" toml:"sign"`
	Activation ActivationConfig `json:"activation" toml:"activation"`
}

// ChannelConfig declares one predicted quantity (e.g. longitudinal
// acceleration) as an open, ordered collection of gated terms reduced by
// summation. New physical effects are added here without touching the
// combiner.
type ChannelConfig struct {
	Name       string           `json:"name" toml:"name"`
	Gates      []GateConfig     `json:"gates" toml:"gates"`
	Correction CorrectionFamily `json:"correction" toml:"correction"`
}

// FrictionConfig parameterizes the friction-ellipse saturation coupling the
// longitudinal and lateral channels.
type FrictionConfig struct {
	Enabled bool    `json:"enabled" toml:"enabled"`
	MuMin   float64 `json:"muMin" toml:"mu_min"`
	MuMax   float64 `json:"muMax" toml:"mu_max"`
	Gravity float64 `json:"gravity" toml:"gravity"`
	Epsilon float64 `json:"epsilon" toml:"epsilon"`
}

// Config is the complete declarative description of a forward model.
type Config struct {
	// SampleTime is the discretization step in seconds.
	SampleTime float64 `json:"sampleTime" toml:"sample_time"`

	// OperatingVariable names the channel that is fuzzified (e.g. "vx").
	OperatingVariable string `json:"operatingVariable" toml:"operating_variable"`

	// FuzzySet covers the operating domain.
	FuzzySet fuzzy.Set `json:"fuzzySet" toml:"fuzzy_set"`

	// Encoder configures normalization of the fuzzy activations.
	Encoder fuzzy.EncoderConfig `json:"encoder" toml:"encoder"`

	// LocalModels declares the bank.
	LocalModels []LocalModelConfig `json:"localModels" toml:"local_models"`

	// Channels declares the predicted quantities, in state order.
	Channels []ChannelConfig `json:"channels" toml:"channels"`

	// Friction couples the first two channels when enabled.
	Friction FrictionConfig `json:"friction" toml:"friction"`

	// StateChannels and ControlChannels fix the signal layout of episodes.
	StateChannels   []string `json:"stateChannels" toml:"state_channels"`
	ControlChannels []string `json:"controlChannels" toml:"control_channels"`
}

// vehicle preset windows at 100 Hz: actuator memory 0.10 s, steering memory
// 0.10 s, state memory 0.20 s.
const (
	vehicleControlWindow = 10
	vehicleSteerWindow   = 10
	vehicleStateWindow   = 20
)

// DefaultVehicleConfig returns the combined longitudinal + lateral + yaw
// vehicle model: per-channel FIR terms over throttle, brake, steering and
// state windows, with the longitudinal drag term split into speed-region
// local models gated by the speed fuzzy set.
func DefaultVehicleConfig() Config {
	speedSet := fuzzy.Set{
		Variable: "vx",
		Min:      0,
		Max:      100,
		Functions: []fuzzy.MembershipFunction{
			{Name: "low_speed", Family: fuzzy.FamilySigmoid, Center: 18, Width: 6, Rising: false},
			{Name: "high_speed", Family: fuzzy.FamilySigmoid, Center: 18, Width: 6, Rising: true},
		},
	}

	models := []LocalModelConfig{
		{Name: "ax_throttle", Channel: "throttle", Window: vehicleControlWindow},
		{Name: "ax_brake", Channel: "brake", Window: vehicleControlWindow},
		{Name: "ax_drag_low", Channel: "vx", Window: vehicleStateWindow},
		{Name: "ax_drag_high", Channel: "vx", Window: vehicleStateWindow},
		{Name: "ax_delta", Channel: "delta", Window: vehicleSteerWindow},
		{Name: "ax_yaw", Channel: "r", Window: vehicleStateWindow},
		{Name: "ax_lat", Channel: "vy", Window: vehicleStateWindow},

		{Name: "ay_delta", Channel: "delta", Window: vehicleSteerWindow},
		{Name: "ay_long", Channel: "vx", Window: vehicleStateWindow},
		{Name: "ay_lat", Channel: "vy", Window: vehicleStateWindow},
		{Name: "ay_yaw", Channel: "r", Window: vehicleStateWindow},
		{Name: "ay_throttle", Channel: "throttle", Window: vehicleControlWindow},
		{Name: "ay_brake", Channel: "brake", Window: vehicleControlWindow},

		{Name: "rdot_delta", Channel: "delta", Window: vehicleSteerWindow},
		{Name: "rdot_long", Channel: "vx", Window: vehicleStateWindow},
		{Name: "rdot_lat", Channel: "vy", Window: vehicleStateWindow},
		{Name: "rdot_yaw", Channel: "r", Window: vehicleStateWindow},
		{Name: "rdot_throttle", Channel: "throttle", Window: vehicleControlWindow},
		{Name: "rdot_brake", Channel: "brake", Window: vehicleControlWindow},
	}

	on := ActivationConfig{Kind: ActivationConstant, Value: 1}

	axGates := []GateConfig{
		// Throttle and brake are both allowed active at once: a driver can
		// brake and accelerate together, so no structural exclusion.
		{Name: "throttle", Model: "ax_throttle", Sign: +1, Activation: on},
		{Name: "brake", Model: "ax_brake", Sign: -1, Activation: on},
		{Name: "drag_low", Model: "ax_drag_low", Sign: +1, Activation: ActivationConfig{Kind: ActivationMembership, Index: 0}},
		{Name: "drag_high", Model: "ax_drag_high", Sign: +1, Activation: ActivationConfig{Kind: ActivationMembership, Index: 1}},
		{Name: "steer", Model: "ax_delta", Sign: +1, Activation: on},
		{Name: "yaw", Model: "ax_yaw", Sign: +1, Activation: on},
		{Name: "lat", Model: "ax_lat", Sign: +1, Activation: on},
	}
	ayGates := []GateConfig{
		{Name: "steer", Model: "ay_delta", Sign: +1, Activation: on},
		{Name: "long", Model: "ay_long", Sign: +1, Activation: on},
		{Name: "lat", Model: "ay_lat", Sign: +1, Activation: on},
		{Name: "yaw", Model: "ay_yaw", Sign: +1, Activation: on},
		{Name: "throttle", Model: "ay_throttle", Sign: +1, Activation: on},
		{Name: "brake", Model: "ay_brake", Sign: -1, Activation: on},
	}
	rdotGates := []GateConfig{
		{Name: "steer", Model: "rdot_delta", Sign: +1, Activation: on},
		{Name: "long", Model: "rdot_long", Sign: +1, Activation: on},
		{Name: "lat", Model: "rdot_lat", Sign: +1, Activation: on},
		{Name: "yaw", Model: "rdot_yaw", Sign: +1, Activation: on},
		{Name: "throttle", Model: "rdot_throttle", Sign: +1, Activation: on},
		{Name: "brake", Model: "rdot_brake", Sign: -1, Activation: on},
	}

	return Config{
		SampleTime:        0.01,
		OperatingVariable: "vx",
		FuzzySet:          speedSet,
		Encoder:           fuzzy.DefaultEncoderConfig(),
		LocalModels:       models,
		Channels: []ChannelConfig{
			{Name: "ax", Gates: axGates, Correction: CorrectionCubic},
			{Name: "ay", Gates: ayGates, Correction: CorrectionCubic},
			{Name: "rdot", Gates: rdotGates, Correction: CorrectionBias},
		},
		Friction: FrictionConfig{
			Enabled: true,
			MuMin:   0.6,
			MuMax:   2.0,
			Gravity: 9.81,
			Epsilon: 1e-6,
		},
		StateChannels:   []string{"vx", "vy", "r"},
		ControlChannels: []string{"delta", "throttle", "brake"},
	}
}
