package engine

import (
	"github.com/ubports/upstart/internal/job"
	"github.com/ubports/upstart/internal/wire"
)

// wireGoal/wireState/wireSlot translate internal/job's Go enums into
// §6's wire-stable values (internal/wire/enums.go). The two enums
// happen to share declaration order today, but control.go never relies
// on that coincidence — every crossing of the wire boundary goes
// through one of these explicit tables.
func wireGoal(g job.Goal) uint32 {
	if g == job.Start {
		return wire.GoalStart
	}
	return wire.GoalStop
}

func wireState(s job.State) uint32 {
	switch s {
	case job.Waiting:
		return wire.StateWaiting
	case job.Starting:
		return wire.StateStarting
	case job.PreStart:
		return wire.StatePreStart
	case job.Spawned:
		return wire.StateSpawned
	case job.PostStart:
		return wire.StatePostStart
	case job.Running:
		return wire.StateRunning
	case job.PreStop:
		return wire.StatePreStop
	case job.Stopping:
		return wire.StateStopping
	case job.Killed:
		return wire.StateKilled
	case job.PostStop:
		return wire.StatePostStop
	default:
		return wire.StateWaiting
	}
}

func wireSlot(s job.Slot) uint32 {
	switch s {
	case job.Main:
		return wire.ProcessMain
	case job.PreStart:
		return wire.ProcessPreStart
	case job.PostStart:
		return wire.ProcessPostStart
	case job.PreStop:
		return wire.ProcessPreStop
	case job.PostStop:
		return wire.ProcessPostStop
	default:
		return wire.ProcessMain
	}
}
