package dynamics

import (
	"fmt"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	infraFuzzy "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/fuzzy"
)

// Build assembles a forward model from a declarative configuration: the
// local model bank, the gated channels with their corrections, and the
// membership encoder.
func Build(config domain.Config) (*ForwardModel, error) {
	if config.SampleTime <= 0 {
		return nil, fmt.Errorf("%w: sample time must be > 0", domain.ErrInvalidConfig)
	}
	if len(config.Channels) == 0 {
		return nil, fmt.Errorf("%w: no channels declared", domain.ErrInvalidConfig)
	}
	if len(config.Channels) != len(config.StateChannels) {
		return nil, fmt.Errorf("%w: %d channels for %d state channels",
			domain.ErrInvalidConfig, len(config.Channels), len(config.StateChannels))
	}

	models := make([]LocalModel, 0, len(config.LocalModels))
	for _, mc := range config.LocalModels {
		if mc.Window <= 0 {
			return nil, fmt.Errorf("%w: local model %q window must be > 0", domain.ErrInvalidConfig, mc.Name)
		}
		models = append(models, NewFIRModel(mc.Name, mc.Channel, mc.Window))
	}
	bank, err := NewBank(models)
	if err != nil {
		return nil, err
	}

	channels := make([]*Channel, 0, len(config.Channels))
	for _, cc := range config.Channels {
		ch := &Channel{Name: cc.Name}

		for _, gc := range cc.Gates {
			idx, ok := bank.IndexOf(gc.Model)
			if !ok {
				return nil, fmt.Errorf("%w: gate %q references unknown model %q", domain.ErrInvalidConfig, gc.Name, gc.Model)
			}
			activation, err := buildActivation(cc.Name+"."+gc.Name, gc.Activation)
			if err != nil {
				return nil, err
			}
			sign := gc.Sign
			if sign == 0 {
				sign = 1
			}
			ch.Gates = append(ch.Gates, domain.Gate{
				Name:       gc.Name,
				ModelIndex: idx,
				Sign:       sign,
				Activation: activation,
			})
		}

		switch cc.Correction {
		case domain.CorrectionNone, "":
			ch.Correction = IdentityCorrection{}
		case domain.CorrectionBias:
			ch.Correction = NewBiasCorrection(cc.Name)
		case domain.CorrectionQuadratic:
			ch.Correction, err = NewPolynomialCorrection(cc.Name, 2)
		case domain.CorrectionCubic:
			ch.Correction, err = NewPolynomialCorrection(cc.Name, 3)
		case domain.CorrectionTanhState:
			ch.State = NewStateLearner(cc.Name)
		default:
			err = fmt.Errorf("%w: unknown correction family %q", domain.ErrInvalidConfig, cc.Correction)
		}
		if err != nil {
			return nil, err
		}

		channels = append(channels, ch)
	}

	encoder := infraFuzzy.NewEncoder(config.Encoder)
	return NewForwardModel(config, encoder, bank, channels), nil
}

func buildActivation(name string, ac domain.ActivationConfig) (domain.Activation, error) {
	switch ac.Kind {
	case domain.ActivationConstant, "":
		return domain.ConstantActivation(ac.Value), nil
	case domain.ActivationMembership:
		return domain.MembershipActivation{Index: ac.Index}, nil
	case domain.ActivationFunction:
		return domain.FunctionActivation{Channel: ac.Channel, Function: ac.Function}, nil
	case domain.ActivationLearned:
		return domain.NewLearnedActivation(name+".gate", ac.Channel, ac.Slope, ac.Offset), nil
	default:
		return nil, fmt.Errorf("%w: unknown activation kind %q", domain.ErrInvalidConfig, ac.Kind)
	}
}
