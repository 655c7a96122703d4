package ipc

// Command types a client may send once the session is open.
const (
	TypeDamage      = "damage"
	TypeForcePounce = "force_pounce"
	TypeSetParam    = "set_param"
)

// DamageCommand applies a blow to Target. Types is a "shock|blast" style list.
type DamageCommand struct {
	Target   string  `json:"target"`
	Attacker string  `json:"attacker,omitempty"`
	Amount   float64 `json:"amount"`
	Types    string  `json:"types"`
	Stumble  bool    `json:"stumble,omitempty"`
}

type ForcePounceCommand struct {
	Actor  string `json:"actor"`
	Target string `json:"target"`
}

type SetParamCommand struct {
	Actor string `json:"actor"`
	Param string `json:"param"`
	Value int    `json:"value"`
}
