package behavior

import "github.com/nstehr/hive/ai"

const (
	TaskMeleeAttack ai.TaskKind = ai.TaskBehaviorBase + iota
	TaskMeleeOutcome

	TaskPounceFace
	TaskPounceLaunch
	TaskPounceFly
	TaskPounceLand

	TaskChargeStart
	TaskChargeMove
	TaskChargeEnd

	TaskRangedAim
	TaskRangedFire

	TaskRetreat
	TaskFlinch
	TaskCombatStun
)

func init() {
	ai.NameTasks(map[ai.TaskKind]string{
		TaskMeleeAttack:  "melee_attack",
		TaskMeleeOutcome: "melee_outcome",
		TaskPounceFace:   "pounce_face",
		TaskPounceLaunch: "pounce_launch",
		TaskPounceFly:    "pounce_fly",
		TaskPounceLand:   "pounce_land",
		TaskChargeStart:  "charge_start",
		TaskChargeMove:   "charge_move",
		TaskChargeEnd:    "charge_end",
		TaskRangedAim:    "ranged_aim",
		TaskRangedFire:   "ranged_fire",
		TaskRetreat:      "retreat",
		TaskFlinch:       "flinch",
		TaskCombatStun:   "combat_stun",
	})
}
