package control

import "golang.org/x/sys/unix"

// Authorizer decides whether a message from cred is accepted, per §6:
// "Accept a message only if sender UID is 0 or the process's own UID;
// and sender PID is either 1, the process's own PID, or the process is
// itself PID 1."
type Authorizer struct {
	OwnUID int
	OwnPID int
	IsPID1 bool
}

// NewAuthorizer captures the daemon's own identity for authorization
// decisions (own uid/pid, and whether this process is PID 1 — PID 1 may
// accept messages from anyone's pid, since upstart is a privileged init).
func NewAuthorizer(ownUID, ownPID int, isPID1 bool) *Authorizer {
	return &Authorizer{OwnUID: ownUID, OwnPID: ownPID, IsPID1: isPID1}
}

// Allow reports whether cred passes the §6 authorization rule.
func (a *Authorizer) Allow(cred unix.Ucred) bool {
	uidOK := cred.Uid == 0 || int(cred.Uid) == a.OwnUID
	pidOK := cred.Pid == 1 || int(cred.Pid) == a.OwnPID || a.IsPID1
	return uidOK && pidOK
}
