package model

import "time"

// JobOutcome summarizes one run of a sync job.
type JobOutcome struct {
	Job        string    `json:"job"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewJobOutcome starts an outcome for the named job.
func NewJobOutcome(job string) *JobOutcome {
	return &JobOutcome{Job: job, StartedAt: time.Now()}
}

// Finish stamps the end time and returns the outcome for chaining.
func (o *JobOutcome) Finish() *JobOutcome {
	o.FinishedAt = time.Now()
	return o
}
