package wire

// Message type codes (§6's core subset, plus the EventHistory extension
// from SPEC_FULL §C.3). Enum encodings are wire-stable: goals
// {stop=0, start=1}; states in job.State's declaration order; process
// slots {main=0, pre-start=1, post-start=2, pre-stop=3, post-stop=4},
// defined in enums.go; internal/engine's wireconv.go maps internal/job's
// enums onto them explicitly.
const (
	TypeNoOp        uint32 = 0x0000
	TypeVersionQuery uint32 = 0x0001
	TypeLogPriority uint32 = 0x0002
	TypeVersion     uint32 = 0x0010

	TypeJobFind    uint32 = 0x0100
	TypeJobQuery   uint32 = 0x0101
	TypeJobStart   uint32 = 0x0102
	TypeJobStop    uint32 = 0x0103
	TypeJob        uint32 = 0x0110
	TypeJobFinished uint32 = 0x011f
	TypeJobList    uint32 = 0x0120
	TypeJobListEnd uint32 = 0x012f
	TypeJobStatus  uint32 = 0x0180
	TypeJobProcess uint32 = 0x0181
	TypeJobStatusEnd uint32 = 0x018f
	TypeJobUnknown uint32 = 0x01f0
	TypeJobInvalid uint32 = 0x01f1

	TypeEventEmit     uint32 = 0x0200
	TypeEvent         uint32 = 0x0210
	TypeEventCaused   uint32 = 0x0211
	TypeEventFinished uint32 = 0x021f

	// TypeEventHistory/TypeEventHistoryEnd are the SPEC_FULL §C.3
	// extension: a journal-backed query for finished events, framed the
	// same way as JobList/JobListEnd.
	TypeEventHistory    uint32 = 0x0220
	TypeEventHistoryEnd uint32 = 0x022f

	TypeSubscribeJobs     uint32 = 0x1000
	TypeUnsubscribeJobs   uint32 = 0x100f
	TypeSubscribeEvents   uint32 = 0x1010
	TypeUnsubscribeEvents uint32 = 0x101f
)

func newMessage(typ uint32) Message {
	switch typ {
	case TypeNoOp:
		return &NoOp{}
	case TypeVersionQuery:
		return &VersionQuery{}
	case TypeLogPriority:
		return &LogPriority{}
	case TypeVersion:
		return &Version{}
	case TypeJobFind:
		return &JobFind{}
	case TypeJobQuery:
		return &JobQuery{}
	case TypeJobStart:
		return &JobStart{}
	case TypeJobStop:
		return &JobStop{}
	case TypeJob:
		return &Job{}
	case TypeJobFinished:
		return &JobFinished{}
	case TypeJobList:
		return &JobList{}
	case TypeJobListEnd:
		return &JobListEnd{}
	case TypeJobStatus:
		return &JobStatus{}
	case TypeJobProcess:
		return &JobProcess{}
	case TypeJobStatusEnd:
		return &JobStatusEnd{}
	case TypeJobUnknown:
		return &JobUnknown{}
	case TypeJobInvalid:
		return &JobInvalid{}
	case TypeEventEmit:
		return &EventEmit{}
	case TypeEvent:
		return &Event{}
	case TypeEventCaused:
		return &EventCaused{}
	case TypeEventFinished:
		return &EventFinished{}
	case TypeEventHistory:
		return &EventHistory{}
	case TypeEventHistoryEnd:
		return &EventHistoryEnd{}
	case TypeSubscribeJobs:
		return &SubscribeJobs{}
	case TypeUnsubscribeJobs:
		return &UnsubscribeJobs{}
	case TypeSubscribeEvents:
		return &SubscribeEvents{}
	case TypeUnsubscribeEvents:
		return &UnsubscribeEvents{}
	default:
		return nil
	}
}

// NoOp carries no payload; a sender may use it as a socket liveness probe
// lighter than VersionQuery.
type NoOp struct{}

func (m *NoOp) Type() uint32          { return TypeNoOp }
func (m *NoOp) Marshal(w *Writer)     {}
func (m *NoOp) Unmarshal(r *Reader) error { return nil }

type VersionQuery struct{}

func (m *VersionQuery) Type() uint32          { return TypeVersionQuery }
func (m *VersionQuery) Marshal(w *Writer)     {}
func (m *VersionQuery) Unmarshal(r *Reader) error { return nil }

// LogPriority requests the daemon adjust its log filter level (SPEC_FULL
// §C.1).
type LogPriority struct {
	Priority uint32
}

func (m *LogPriority) Type() uint32      { return TypeLogPriority }
func (m *LogPriority) Marshal(w *Writer) { w.PutUint32(m.Priority) }
func (m *LogPriority) Unmarshal(r *Reader) (err error) {
	m.Priority, err = r.Uint32()
	return err
}

type Version struct {
	Version string
}

func (m *Version) Type() uint32      { return TypeVersion }
func (m *Version) Marshal(w *Writer) { w.PutString(m.Version) }
func (m *Version) Unmarshal(r *Reader) error {
	s, _, err := r.String()
	m.Version = s
	return err
}

// JobFind requests jobs matching Pattern (a glob); nil Pattern matches all.
type JobFind struct {
	Pattern        string
	HasPattern bool
}

func (m *JobFind) Type() uint32      { return TypeJobFind }
func (m *JobFind) Marshal(w *Writer) { w.PutNullableString(m.Pattern, m.HasPattern) }
func (m *JobFind) Unmarshal(r *Reader) error {
	s, present, err := r.String()
	m.Pattern, m.HasPattern = s, present
	return err
}

type JobQuery struct {
	Name string
	ID   uint32
}

func (m *JobQuery) Type() uint32      { return TypeJobQuery }
func (m *JobQuery) Marshal(w *Writer) { w.PutString(m.Name); w.PutUint32(m.ID) }
func (m *JobQuery) Unmarshal(r *Reader) (err error) {
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	m.ID, err = r.Uint32()
	return err
}

type JobStart struct {
	Name string
	ID   uint32
}

func (m *JobStart) Type() uint32      { return TypeJobStart }
func (m *JobStart) Marshal(w *Writer) { w.PutString(m.Name); w.PutUint32(m.ID) }
func (m *JobStart) Unmarshal(r *Reader) (err error) {
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	m.ID, err = r.Uint32()
	return err
}

type JobStop struct {
	Name string
	ID   uint32
}

func (m *JobStop) Type() uint32      { return TypeJobStop }
func (m *JobStop) Marshal(w *Writer) { w.PutString(m.Name); w.PutUint32(m.ID) }
func (m *JobStop) Unmarshal(r *Reader) (err error) {
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	m.ID, err = r.Uint32()
	return err
}

type Job struct {
	ID   uint32
	Name string
}

func (m *Job) Type() uint32      { return TypeJob }
func (m *Job) Marshal(w *Writer) { w.PutUint32(m.ID); w.PutString(m.Name) }
func (m *Job) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	m.Name, _, err = r.String()
	return err
}

type JobFinished struct {
	ID            uint32
	Name          string
	Failed        bool
	FailedProcess uint32
	Status        int32
}

func (m *JobFinished) Type() uint32 { return TypeJobFinished }
func (m *JobFinished) Marshal(w *Writer) {
	w.PutUint32(m.ID)
	w.PutString(m.Name)
	w.PutBool(m.Failed)
	w.PutUint32(m.FailedProcess)
	w.PutInt32(m.Status)
}
func (m *JobFinished) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	if m.Failed, err = r.Bool(); err != nil {
		return err
	}
	if m.FailedProcess, err = r.Uint32(); err != nil {
		return err
	}
	m.Status, err = r.Int32()
	return err
}

type JobList struct {
	Pattern string
}

func (m *JobList) Type() uint32      { return TypeJobList }
func (m *JobList) Marshal(w *Writer) { w.PutString(m.Pattern) }
func (m *JobList) Unmarshal(r *Reader) (err error) {
	m.Pattern, _, err = r.String()
	return err
}

type JobListEnd struct {
	Pattern string
}

func (m *JobListEnd) Type() uint32      { return TypeJobListEnd }
func (m *JobListEnd) Marshal(w *Writer) { w.PutString(m.Pattern) }
func (m *JobListEnd) Unmarshal(r *Reader) (err error) {
	m.Pattern, _, err = r.String()
	return err
}

type JobStatus struct {
	ID    uint32
	Name  string
	Goal  uint32
	State uint32
}

func (m *JobStatus) Type() uint32 { return TypeJobStatus }
func (m *JobStatus) Marshal(w *Writer) {
	w.PutUint32(m.ID)
	w.PutString(m.Name)
	w.PutUint32(m.Goal)
	w.PutUint32(m.State)
}
func (m *JobStatus) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	if m.Goal, err = r.Uint32(); err != nil {
		return err
	}
	m.State, err = r.Uint32()
	return err
}

type JobProcess struct {
	ProcessSlot uint32
	PID         int32
}

func (m *JobProcess) Type() uint32      { return TypeJobProcess }
func (m *JobProcess) Marshal(w *Writer) { w.PutUint32(m.ProcessSlot); w.PutInt32(m.PID) }
func (m *JobProcess) Unmarshal(r *Reader) (err error) {
	if m.ProcessSlot, err = r.Uint32(); err != nil {
		return err
	}
	m.PID, err = r.Int32()
	return err
}

type JobStatusEnd struct {
	ID    uint32
	Name  string
	Goal  uint32
	State uint32
}

func (m *JobStatusEnd) Type() uint32 { return TypeJobStatusEnd }
func (m *JobStatusEnd) Marshal(w *Writer) {
	w.PutUint32(m.ID)
	w.PutString(m.Name)
	w.PutUint32(m.Goal)
	w.PutUint32(m.State)
}
func (m *JobStatusEnd) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	if m.Goal, err = r.Uint32(); err != nil {
		return err
	}
	m.State, err = r.Uint32()
	return err
}

type JobUnknown struct {
	Name string
	ID   uint32
}

func (m *JobUnknown) Type() uint32      { return TypeJobUnknown }
func (m *JobUnknown) Marshal(w *Writer) { w.PutString(m.Name); w.PutUint32(m.ID) }
func (m *JobUnknown) Unmarshal(r *Reader) (err error) {
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	m.ID, err = r.Uint32()
	return err
}

type JobInvalid struct {
	ID   uint32
	Name string
}

func (m *JobInvalid) Type() uint32      { return TypeJobInvalid }
func (m *JobInvalid) Marshal(w *Writer) { w.PutUint32(m.ID); w.PutString(m.Name) }
func (m *JobInvalid) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	m.Name, _, err = r.String()
	return err
}

type EventEmit struct {
	Name string
	Args []string
	Env  []string
}

func (m *EventEmit) Type() uint32 { return TypeEventEmit }
func (m *EventEmit) Marshal(w *Writer) {
	w.PutString(m.Name)
	w.PutStringArray(m.Args)
	w.PutStringArray(m.Env)
}
func (m *EventEmit) Unmarshal(r *Reader) (err error) {
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	if m.Args, err = r.StringArray(); err != nil {
		return err
	}
	m.Env, err = r.StringArray()
	return err
}

type Event struct {
	ID   uint32
	Name string
	Args []string
	Env  []string
}

func (m *Event) Type() uint32 { return TypeEvent }
func (m *Event) Marshal(w *Writer) {
	w.PutUint32(m.ID)
	w.PutString(m.Name)
	w.PutStringArray(m.Args)
	w.PutStringArray(m.Env)
}
func (m *Event) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	if m.Args, err = r.StringArray(); err != nil {
		return err
	}
	m.Env, err = r.StringArray()
	return err
}

type EventCaused struct {
	ID uint32
}

func (m *EventCaused) Type() uint32      { return TypeEventCaused }
func (m *EventCaused) Marshal(w *Writer) { w.PutUint32(m.ID) }
func (m *EventCaused) Unmarshal(r *Reader) (err error) {
	m.ID, err = r.Uint32()
	return err
}

type EventFinished struct {
	ID     uint32
	Failed bool
	Name   string
	Args   []string
	Env    []string
}

func (m *EventFinished) Type() uint32 { return TypeEventFinished }
func (m *EventFinished) Marshal(w *Writer) {
	w.PutUint32(m.ID)
	w.PutBool(m.Failed)
	w.PutString(m.Name)
	w.PutStringArray(m.Args)
	w.PutStringArray(m.Env)
}
func (m *EventFinished) Unmarshal(r *Reader) (err error) {
	if m.ID, err = r.Uint32(); err != nil {
		return err
	}
	if m.Failed, err = r.Bool(); err != nil {
		return err
	}
	if m.Name, _, err = r.String(); err != nil {
		return err
	}
	if m.Args, err = r.StringArray(); err != nil {
		return err
	}
	m.Env, err = r.StringArray()
	return err
}

// EventHistory requests finished events from internal/journal matching
// NameGlob (nullable: null matches all), capped at Limit entries
// (SPEC_FULL §C.3).
type EventHistory struct {
	NameGlob      string
	HasNameGlob bool
	Limit         uint32
}

func (m *EventHistory) Type() uint32 { return TypeEventHistory }
func (m *EventHistory) Marshal(w *Writer) {
	w.PutNullableString(m.NameGlob, m.HasNameGlob)
	w.PutUint32(m.Limit)
}
func (m *EventHistory) Unmarshal(r *Reader) (err error) {
	m.NameGlob, m.HasNameGlob, err = r.String()
	if err != nil {
		return err
	}
	m.Limit, err = r.Uint32()
	return err
}

// EventHistoryEnd terminates an EventHistory reply stream, echoing the
// request's glob for correlation (mirrors JobListEnd).
type EventHistoryEnd struct {
	NameGlob      string
	HasNameGlob bool
}

func (m *EventHistoryEnd) Type() uint32 { return TypeEventHistoryEnd }
func (m *EventHistoryEnd) Marshal(w *Writer) {
	w.PutNullableString(m.NameGlob, m.HasNameGlob)
}
func (m *EventHistoryEnd) Unmarshal(r *Reader) (err error) {
	m.NameGlob, m.HasNameGlob, err = r.String()
	return err
}

type SubscribeJobs struct{}

func (m *SubscribeJobs) Type() uint32          { return TypeSubscribeJobs }
func (m *SubscribeJobs) Marshal(w *Writer)     {}
func (m *SubscribeJobs) Unmarshal(r *Reader) error { return nil }

type UnsubscribeJobs struct{}

func (m *UnsubscribeJobs) Type() uint32          { return TypeUnsubscribeJobs }
func (m *UnsubscribeJobs) Marshal(w *Writer)     {}
func (m *UnsubscribeJobs) Unmarshal(r *Reader) error { return nil }

type SubscribeEvents struct{}

func (m *SubscribeEvents) Type() uint32          { return TypeSubscribeEvents }
func (m *SubscribeEvents) Marshal(w *Writer)     {}
func (m *SubscribeEvents) Unmarshal(r *Reader) error { return nil }

type UnsubscribeEvents struct{}

func (m *UnsubscribeEvents) Type() uint32          { return TypeUnsubscribeEvents }
func (m *UnsubscribeEvents) Marshal(w *Writer)     {}
func (m *UnsubscribeEvents) Unmarshal(r *Reader) error { return nil }
