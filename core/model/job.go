package model

// Job is a unit of work bound to a single machine. Jobs are compared by ID.
type Job struct {
	ID             int `json:"Id"`
	Index          int `json:"Index"`
	MachineIdx     int `json:"MachineIdx"`
	ProcessingTime int `json:"ProcessingTime"`
}

// Equal reports whether both jobs carry the same ID.
func (j Job) Equal(other Job) bool { return j.ID == other.ID }

// Completion returns the last interval occupied by the job when started at start.
func (j Job) Completion(start int) int { return start + j.ProcessingTime - 1 }
