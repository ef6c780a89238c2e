package job

// Reap processes the reaper's report that the child in slot (previously
// j.PID[slot]) exited with code (or, if signaled, was killed by signal
// number code), per §4.4.3. now is unix seconds, used by the runaway
// detector; callers pass it in rather than this package calling time.Now
// directly, keeping the state machine free of wall-clock dependencies.
func (m *Machine) Reap(j *Job, slot Slot, code int, signaled bool, now int64) {
	j.PID[slot] = 0
	if slot == Main {
		j.KillTimerArmed = false
	}

	advance := true
	switch slot {
	case Main:
		advance = m.reapMain(j, code, signaled, now)
	case PreStart, PostStop:
		if code != 0 || signaled {
			m.fail(j, slot, false)
			j.Goal = Stop
		}
	case PostStart, PreStop:
		// Failure in these hooks is ignored (§4.4.2/§4.4.3).
	}

	if !advance {
		return
	}
	if slot == Main && j.State == PostStart && j.PIDAlive(PostStart) {
		return
	}
	if slot == Main && j.State == PreStop && j.PIDAlive(PreStop) {
		return
	}
	m.Advance(j)
}

// reapMain implements §4.4.3's main-process rule, grounded on upstart's
// own job_process_terminated (init/job.c): if the job wasn't already
// being stopped, and the exit is non-zero, signalled, or (for a
// respawning service) merely non-listed in normalexit, the job is
// failed unless the runaway detector permits a respawn. Goal is flipped
// to stop in every case except a permitted respawn, where the job is
// left exactly as it was (still goal=start) so Advance naturally drives
// it through stopping -> killed -> post-stop and back to starting.
// reapMain returns whether the caller should call Advance afterward.
func (m *Machine) reapMain(j *Job, code int, signaled bool, now int64) bool {
	j.ExitStatus = code
	j.ExitSignal = signaled

	respawnServiceRule := j.Config.Respawn.Respawn && !j.Config.Task
	testFailure := j.Goal != Stop && (code != 0 || signaled || respawnServiceRule)

	if !testFailure {
		j.Goal = Stop
		return true
	}

	failed := !j.Config.IsNormalExit(code, signaled)
	if failed && j.Config.Respawn.Respawn && !j.Config.Respawn.DisableRespawn {
		if catchRunaway(j, now) {
			m.fail(j, Main, true) // PROCESS=respawn sentinel
			j.Goal = Stop
			return true
		}
		// Permitted respawn: don't fail, don't change goal; Advance will
		// carry the job through stopping/killed/post-stop and back into
		// starting since goal is still Start.
		return true
	}

	if failed {
		m.fail(j, Main, false)
	}
	j.Goal = Stop
	return true
}

// catchRunaway reports whether the job is respawning too fast, per
// upstart's job_catch_runaway (init/job.c): it tracks a rolling window
// starting at RespawnTime; every respawn within RespawnInterval seconds
// of that window's start increments RespawnCount, tripping the limit
// once the count exceeds RespawnLimit. A window that has elapsed resets
// the count to 1. RespawnLimit == 0 or RespawnInterval == 0 disables the
// detector entirely (never too fast).
func catchRunaway(j *Job, now int64) bool {
	if j.Config.Respawn.RespawnLimit == 0 || j.Config.Respawn.RespawnInterval == 0 {
		return false
	}
	interval := now - j.RespawnTime
	if interval < int64(j.Config.Respawn.RespawnInterval) {
		j.RespawnCount++
		if j.RespawnCount > j.Config.Respawn.RespawnLimit {
			return true
		}
	} else {
		j.RespawnTime = now
		j.RespawnCount = 1
	}
	return false
}
