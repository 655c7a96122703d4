package model

import "strings"

// EntityID identifies anything a trace can hit. The zero value means "none";
// static world geometry is reported as WorldID.
type EntityID uint32

const (
	NoEntity EntityID = 0
	WorldID  EntityID = 1
)

// Class is the capability tag resolved once at spawn. Behaviors compare it by
// value instead of probing concrete types.
type Class uint8

const (
	ClassNone    Class = iota
	ClassWorld         // static geometry
	ClassPlayer        // player-controlled soldier
	ClassAlien         // AI-driven swarm creature
	ClassProp          // physics prop
	ClassNeutral       // civilians, decorations that can take damage
)

var classNames = map[Class]string{
	ClassNone:    "none",
	ClassWorld:   "world",
	ClassPlayer:  "player",
	ClassAlien:   "alien",
	ClassProp:    "prop",
	ClassNeutral: "neutral",
}

func (c Class) String() string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseClass accepts the names produced by String, case-insensitively.
func ParseClass(s string) (Class, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range classNames {
		if n == s {
			return c, true
		}
	}
	return ClassNone, false
}

// Disposition is how one actor regards another.
type Disposition uint8

const (
	Neutral Disposition = iota
	Friend
	Hostile
)

func (d Disposition) String() string {
	switch d {
	case Friend:
		return "friend"
	case Hostile:
		return "hostile"
	default:
		return "neutral"
	}
}

// Entity is a read-only snapshot of an entity's physical and combat state.
type Entity struct {
	ID        EntityID
	Class     Class
	Team      string
	Pos       Vec3
	Yaw       float64
	Velocity  Vec3
	Grounded  bool
	Radius    float64 // hull half-width
	Height    float64
	Mass      float64
	Static    bool // immovable regardless of mass
	Health    float64
	MaxHealth float64
}

// Alive reports whether the entity can still take damage.
func (e Entity) Alive() bool { return e.MaxHealth <= 0 || e.Health > 0 }

// Damageable reports whether damage applied to the entity has any effect.
func (e Entity) Damageable() bool { return e.MaxHealth > 0 && e.Health > 0 }

// Forward is the entity's ground-plane facing vector.
func (e Entity) Forward() Vec3 { return YawVector(e.Yaw) }

// Right is the entity's ground-plane right vector.
func (e Entity) Right() Vec3 { return RightVector(e.Yaw) }

// HealthFraction returns health as 0–1, or 1 for entities without health.
func (e Entity) HealthFraction() float64 {
	if e.MaxHealth <= 0 {
		return 1
	}
	return e.Health / e.MaxHealth
}

// Memory is a remembered enemy with where and when it was last seen.
type Memory struct {
	ID         EntityID
	LastSeen   Vec3
	LastSeenAt float64
}
