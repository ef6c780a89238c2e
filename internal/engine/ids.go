package engine

import "github.com/ubports/upstart/internal/job"

// idTable assigns each live job instance a small, monotonic uint32 for
// wire-protocol messages (§6's "u id" fields). job.Handle is a ULID
// (128 bits, generational, collision-free by construction) used
// internally per §9's design note, but the wire format only budgets 4
// bytes, so the engine keeps its own translation table, minted lazily
// the first time an instance is mentioned on the wire and released once
// the instance is destroyed. IDs are never reused while the process
// runs; the counter simply keeps climbing, matching real upstart's own
// job_id counter in behaviour (monotonic, not recycled mid-run).
type idTable struct {
	next uint32
	ids  map[*job.Job]uint32
	jobs map[uint32]*job.Job
}

func newIDTable() *idTable {
	return &idTable{ids: make(map[*job.Job]uint32), jobs: make(map[uint32]*job.Job)}
}

// idFor returns j's wire id, minting one if this is the first time j has
// been mentioned.
func (t *idTable) idFor(j *job.Job) uint32 {
	if id, ok := t.ids[j]; ok {
		return id
	}
	t.next++
	id := t.next
	t.ids[j] = id
	t.jobs[id] = j
	return id
}

// lookup returns the job instance previously minted under id.
func (t *idTable) lookup(id uint32) (*job.Job, bool) {
	j, ok := t.jobs[id]
	return j, ok
}

// release forgets j's id once it is destroyed.
func (t *idTable) release(j *job.Job) {
	id, ok := t.ids[j]
	if !ok {
		return
	}
	delete(t.ids, j)
	delete(t.jobs, id)
}
