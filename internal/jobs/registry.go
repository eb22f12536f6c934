// Package jobs tracks long-running orchestration requests as in-memory
// asynchronous units. Jobs live only in process memory and are lost on
// restart; callers poll by ID.
package jobs

import (
	"sync"

	"github.com/google/uuid"

	"operators-vault-go/internal/logger"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Job kinds submitted by the API layer.
const (
	KindSync       = "sync"
	KindProcessNew = "process_new"
	KindBackfill   = "backfill"
)

// View is the poll result for one job. Result is set only for done, Error
// only for error, never both.
type View struct {
	ID     string `json:"job_id"`
	Kind   string `json:"type"`
	Status Status `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Registry is the only shared mutable state in the process. The lock guards
// map access for the duration of a read or write, never across the job
// function itself.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*View
}

func NewRegistry() *Registry {
	return &Registry{jobs: map[string]*View{}}
}

// Submit registers the job as running, launches fn on its own goroutine, and
// returns the job ID immediately. The worker writes the terminal state exactly
// once: done with fn's result, or error with the failure message.
func (r *Registry) Submit(kind string, fn func() (any, error)) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.jobs[id] = &View{ID: id, Kind: kind, Status: StatusRunning}
	r.mu.Unlock()

	log := logger.Component("jobs").WithField("job_id", id).WithField("type", kind)
	log.Info("job submitted")

	go func() {
		result, err := fn()
		r.mu.Lock()
		defer r.mu.Unlock()
		j := r.jobs[id]
		if err != nil {
			j.Status = StatusError
			j.Error = err.Error()
			log.WithField("error", err.Error()).Warn("job failed")
			return
		}
		j.Status = StatusDone
		j.Result = result
		log.Info("job done")
	}()

	return id
}

// Get returns a copy of the job's current state.
func (r *Registry) Get(id string) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return View{}, false
	}
	return *j, true
}
