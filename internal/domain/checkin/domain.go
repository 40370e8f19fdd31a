package checkin

import "time"

type Account struct {
	Email    string `json:"email"`
	Password string `json:"-"`
}

type Trigger string

const (
	TriggerHTTP     Trigger = "http"
	TriggerSchedule Trigger = "schedule"
)

type AccountResult struct {
	Account  string `json:"account"` // masked
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Line     string `json:"line"`
	Attempts int    `json:"attempts"`
	Err      error  `json:"-"`
}

// Report is the outcome of one invocation. It is built fresh per run and never stored.
type Report struct {
	RunID      string          `json:"run_id"`
	Trigger    Trigger         `json:"trigger"`
	Domain     string          `json:"domain"` // masked
	Single     bool            `json:"single"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []AccountResult `json:"results"`
	Error      string          `json:"error,omitempty"`
}

func (r *Report) Lines() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Line)
	}
	return out
}

func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int { return len(r.Results) - r.Succeeded() }
