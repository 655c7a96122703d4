package model

// Activity is a symbolic animation name. The animation collaborator maps it
// to whatever sequence the actor's model provides.
type Activity string

const (
	ActIdle Activity = "idle"
	ActRun  Activity = "run"

	ActMeleeAttack1 Activity = "melee_attack1"
	ActMeleeAttack2 Activity = "melee_attack2"
	ActMeleeHit     Activity = "melee_hit"
	ActMeleeMiss    Activity = "melee_miss"

	ActPounceLaunch Activity = "pounce_launch"
	ActPounceGlide  Activity = "pounce_glide"
	ActPounceHit    Activity = "pounce_hit"
	ActPounceMiss   Activity = "pounce_miss"
	ActPounceLand   Activity = "pounce_land"

	ActChargeStart      Activity = "charge_start"
	ActChargeRun        Activity = "charge_run"
	ActChargeAnticipate Activity = "charge_anticipate"
	ActChargeCrash      Activity = "charge_crash"
	ActChargeStop       Activity = "charge_stop"
	ActChargeHit        Activity = "charge_hit"

	ActRangePrepare Activity = "range_prepare"
	ActRangeFire    Activity = "range_fire"
	ActRangeRecover Activity = "range_recover"

	ActStepBack Activity = "step_back"

	ActFlinchFront  Activity = "flinch_front"
	ActFlinchBack   Activity = "flinch_back"
	ActFlinchLeft   Activity = "flinch_left"
	ActFlinchRight  Activity = "flinch_right"
	ActStumbleFront Activity = "stumble_front"
	ActStumbleBack  Activity = "stumble_back"
	ActStumbleLeft  Activity = "stumble_left"
	ActStumbleRight Activity = "stumble_right"

	ActCombatStun Activity = "combat_stun"
	ActKnockdown  Activity = "knockdown"
)

// AnimEvent is a named marker fired by the animation system part-way through
// a sequence.
type AnimEvent string

const (
	AnimMeleeHit    AnimEvent = "melee_hit"
	AnimRangedFire  AnimEvent = "ranged_fire"
	AnimPounceLeave AnimEvent = "pounce_leave"
)
