package presenter

// Scheduler runs background fetches for a presenter session. Schedule must
// not run task on the calling goroutine: the task reports back to the
// session loop that called Schedule.
type Scheduler interface {
	Schedule(task func())
}

// GoScheduler runs every task on its own goroutine.
type GoScheduler struct{}

func (GoScheduler) Schedule(task func()) { go task() }
