package model

import "sort"

// IndexedStartTime is the wire form of a single job assignment.
type IndexedStartTime struct {
	JobIndex  int `json:"JobIndex" yaml:"JobIndex"`
	StartTime int `json:"StartTime" yaml:"StartTime"`
}

// StartTimes maps a job index to the interval index where the job starts.
type StartTimes map[int]int

// FromIndexed builds StartTimes from its wire form. Later entries win.
func FromIndexed(items []IndexedStartTime) StartTimes {
	st := make(StartTimes, len(items))
	for _, it := range items {
		st[it.JobIndex] = it.StartTime
	}
	return st
}

// Indexed returns the wire form ordered by job index.
func (s StartTimes) Indexed() []IndexedStartTime {
	out := make([]IndexedStartTime, 0, len(s))
	for idx, start := range s {
		out = append(out, IndexedStartTime{JobIndex: idx, StartTime: start})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobIndex < out[j].JobIndex })
	return out
}

// Clone returns an independent copy.
func (s StartTimes) Clone() StartTimes {
	if s == nil {
		return nil
	}
	cp := make(StartTimes, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Has reports whether the job has an assigned start.
func (s StartTimes) Has(j Job) bool {
	_, ok := s[j.Index]
	return ok
}
