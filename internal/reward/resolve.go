// Package reward resolves a chore's reward spec into the concrete amount a
// parent pays out at approval time.
package reward

import (
	"fmt"

	"chorebank/internal/model"
)

// Resolve returns the final reward amount for an approval. A fixed reward
// always wins: a provided value is ignored, even if it differs. A range
// reward requires a provided value inside [min, max] inclusive.
func Resolve(spec model.RewardSpec, provided *int64) (int64, error) {
	switch spec.Kind {
	case model.RewardFixed:
		return spec.Amount, nil
	case model.RewardRange:
		if provided == nil {
			return 0, model.ErrRewardOutOfRange
		}
		if *provided < spec.Min || *provided > spec.Max {
			return 0, model.ErrRewardOutOfRange
		}
		return *provided, nil
	default:
		return 0, fmt.Errorf("unknown reward kind %q", spec.Kind)
	}
}

// ValidateSpec checks a reward spec once, at chore creation. Range bounds are
// not re-validated at every approval.
func ValidateSpec(spec model.RewardSpec) error {
	switch spec.Kind {
	case model.RewardFixed:
		return nil
	case model.RewardRange:
		if spec.Min >= spec.Max {
			return model.ErrInvalidRewardRange
		}
		return nil
	default:
		return fmt.Errorf("unknown reward kind %q", spec.Kind)
	}
}
