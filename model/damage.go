package model

import (
	"fmt"
	"strings"
)

// DamageType is a bitset of damage tags carried by a single blow.
type DamageType uint32

const (
	DamageGeneric DamageType = 0
	DamageBullet  DamageType = 1 << iota
	DamageSlash
	DamageClub
	DamageBlast
	DamageBurn
	DamageShock
	DamageSonic
	DamageAcid
	DamagePoison // damage over time
)

var damageNames = []struct {
	t    DamageType
	name string
}{
	{DamageBullet, "bullet"},
	{DamageSlash, "slash"},
	{DamageClub, "club"},
	{DamageBlast, "blast"},
	{DamageBurn, "burn"},
	{DamageShock, "shock"},
	{DamageSonic, "sonic"},
	{DamageAcid, "acid"},
	{DamagePoison, "poison"},
}

// DamageOverTime groups the tags applied by lingering effects.
const DamageOverTime = DamageBurn | DamagePoison | DamageAcid

// Has reports whether every bit of mask is present.
func (d DamageType) Has(mask DamageType) bool { return mask != 0 && d&mask == mask }

// Any reports whether at least one bit of mask is present.
func (d DamageType) Any(mask DamageType) bool { return d&mask != 0 }

// Melee reports whether the blow came from a close-range weapon.
func (d DamageType) Melee() bool { return d.Any(DamageSlash | DamageClub) }

func (d DamageType) String() string {
	if d == DamageGeneric {
		return "generic"
	}
	var parts []string
	for _, n := range damageNames {
		if d&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseDamageType parses "slash|blast" style lists.
func ParseDamageType(s string) (DamageType, error) {
	var out DamageType
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		found := false
		for _, n := range damageNames {
			if strings.EqualFold(part, n.name) {
				out |= n.t
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown damage type %q", part)
		}
	}
	return out, nil
}

// DamageInfo describes one blow.
type DamageInfo struct {
	Attacker      EntityID
	AttackerClass Class
	AttackerPos   Vec3
	Amount        float64
	Types         DamageType
	Force         Vec3
	// Stumble is the weapon-specific flag that always knocks the victim off
	// balance (unless the blow is shock or damage over time).
	Stumble bool
	Time    float64
}
