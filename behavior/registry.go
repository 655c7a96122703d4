package behavior

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

// Configurable behaviors take string-keyed numeric parameters at spawn.
type Configurable interface {
	ai.Behavior
	Configure(params map[string]float64, log *slog.Logger)
}

type factory func(name string) Configurable

var kinds = map[string]factory{
	"melee": func(name string) Configurable {
		return NewMelee(name, Primary, DefaultMeleeConfig())
	},
	"melee_secondary": func(name string) Configurable {
		return NewMelee(name, Secondary, DefaultMeleeConfig())
	},
	"pounce": func(name string) Configurable {
		return NewPounce(name, DefaultPounceConfig())
	},
	"charge": func(name string) Configurable {
		return NewCharge(name, DefaultChargeConfig())
	},
	"ranged": func(name string) Configurable {
		return NewRanged(name, DefaultRangedConfig())
	},
	"retreat": func(name string) Configurable {
		return NewRetreat(name, DefaultRetreatConfig())
	},
	"flinch": func(name string) Configurable {
		return NewFlinch(name, DefaultFlinchConfig())
	},
	"combat_stun": func(name string) Configurable {
		return NewCombatStun(name, DefaultCombatStunConfig())
	},
}

// Kinds lists the behavior kinds New accepts.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds a behavior of the given kind with its defaults overridden by
// params. The name defaults to the kind.
func New(kind, name string, params map[string]float64, log *slog.Logger) (Configurable, error) {
	f, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown behavior kind %q", kind)
	}
	if name == "" {
		name = kind
	}
	b := f(name)
	b.Configure(params, log)
	return b, nil
}

// Forcer is implemented by behaviors that accept a forced pounce order.
type Forcer interface {
	ForcePounce(target model.EntityID)
}

// ForcePounce orders the first pouncing behavior on h to leap at target.
// It reports false when the actor cannot pounce.
func ForcePounce(h *ai.Host, target model.EntityID) bool {
	for _, b := range h.Behaviors() {
		if f, ok := b.(Forcer); ok {
			f.ForcePounce(target)
			return true
		}
	}
	return false
}
