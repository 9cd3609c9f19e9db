package drm

// Status is a job status as reported by an external scheduler.
type Status int

// Statuses follow the DRMAA vocabulary.
const (
	Undetermined Status = iota
	QueuedActive
	SystemOnHold
	UserOnHold
	UserSystemOnHold
	Running
	SystemSuspended
	UserSuspended
	UserSystemSuspended
	Done
	Failed
)

var descriptions = map[Status]string{
	Undetermined:        "process status cannot be determined",
	QueuedActive:        "job is queued and active",
	SystemOnHold:        "job is queued and in system hold",
	UserOnHold:          "job is queued and in user hold",
	UserSystemOnHold:    "job is queued and in user and system hold",
	Running:             "job is running",
	SystemSuspended:     "job is system suspended",
	UserSuspended:       "job is user suspended",
	UserSystemSuspended: "job is user and system suspended",
	Done:                "job finished normally",
	Failed:              "job finished, but failed",
}

// String returns a human readable description of the status.
func (s Status) String() string {
	if d, ok := descriptions[s]; ok {
		return d
	}
	return "unknown status"
}

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == Done || s == Failed
}
