package jobs

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaximumJobs bounds the identifier table when no limit is configured.
	DefaultMaximumJobs = 1 << 16
	// MinimumMaximumJobs is the smallest limit that still leaves one usable identifier.
	MinimumMaximumJobs = 2

	firstJobIdentifierConstant           = 1
	capacityExhaustedTemplateConstant    = "%w: all %d job identifiers in use"
	registrationMismatchTemplateConstant = "%w: job %d tracked=%t"
	jobStillAliveTemplateConstant        = "%w: job %d has %d live processes"
	processAlreadyOwnedTemplateConstant  = "%w: process %d already belongs to job %d"
	processAlreadyReapedTemplateConstant = "%w: process %d of job %d"
	processNotMemberTemplateConstant     = "%w: process %d is not a member of job %d"
	invalidMaximumJobsTemplateConstant   = "maximum jobs must be at least %d, got %d"
)

var (
	// ErrJobCapacityExhausted indicates every identifier is assigned; it signals a job leak upstream.
	ErrJobCapacityExhausted = errors.New("maximum number of jobs exceeded")
	// ErrJobRegistrationMismatch indicates Delete was told the wrong tracking state for a job.
	ErrJobRegistrationMismatch = errors.New("job registration mismatch")
	// ErrJobStillAlive indicates Delete was called before every member process was reaped.
	ErrJobStillAlive = errors.New("job still has live processes")
	// ErrProcessAlreadyOwned indicates a process identifier was attached to a second job.
	ErrProcessAlreadyOwned = errors.New("process already owned by a job")
	// ErrProcessNotMember indicates a status report named a process the job never launched.
	ErrProcessNotMember = errors.New("process is not a job member")
	// ErrProcessNotAlive indicates a status report arrived for an already reaped process.
	ErrProcessNotAlive = errors.New("process already reaped")
)

// Registry owns every job through an identifier table, an ordered sequence, and a process index.
type Registry struct {
	maximumJobs     int
	jobsByID        []*Job
	orderedJobs     []*Job
	jobsByProcessID map[int]*Job
}

// NewRegistry constructs a registry handing out identifiers in [1, maximumJobs).
func NewRegistry(maximumJobs int) (*Registry, error) {
	if maximumJobs < MinimumMaximumJobs {
		return nil, fmt.Errorf(invalidMaximumJobsTemplateConstant, MinimumMaximumJobs, maximumJobs)
	}
	return &Registry{
		maximumJobs:     maximumJobs,
		jobsByID:        make([]*Job, maximumJobs),
		jobsByProcessID: make(map[int]*Job),
	}, nil
}

// MaximumJobs returns the configured identifier bound.
func (registry *Registry) MaximumJobs() int {
	return registry.maximumJobs
}

// Allocate creates a job with no processes.
// Tracked jobs join the ordered sequence and receive the smallest free identifier.
func (registry *Registry) Allocate(track bool) (*Job, error) {
	job := &Job{identifier: unsetJobIdentifierConstant}
	if !track {
		return job, nil
	}

	for candidateIdentifier := firstJobIdentifierConstant; candidateIdentifier < registry.maximumJobs; candidateIdentifier++ {
		if registry.jobsByID[candidateIdentifier] != nil {
			continue
		}
		job.identifier = candidateIdentifier
		registry.jobsByID[candidateIdentifier] = job
		registry.orderedJobs = append(registry.orderedJobs, job)
		return job, nil
	}

	return nil, fmt.Errorf(capacityExhaustedTemplateConstant, ErrJobCapacityExhausted, registry.maximumJobs-firstJobIdentifierConstant)
}

// Lookup returns the job holding the identifier.
func (registry *Registry) Lookup(identifier int) (*Job, bool) {
	if identifier < firstJobIdentifierConstant || identifier >= registry.maximumJobs {
		return nil, false
	}
	job := registry.jobsByID[identifier]
	return job, job != nil
}

// Delete removes the job from every view and releases its identifier.
// The job must have no live processes.
func (registry *Registry) Delete(job *Job, wasTracked bool) error {
	if job == nil {
		return nil
	}
	if job.aliveCount > 0 {
		return fmt.Errorf(jobStillAliveTemplateConstant, ErrJobStillAlive, job.identifier, job.aliveCount)
	}

	if !wasTracked {
		if job.identifier != unsetJobIdentifierConstant {
			return fmt.Errorf(registrationMismatchTemplateConstant, ErrJobRegistrationMismatch, job.identifier, wasTracked)
		}
		registry.releaseProcesses(job)
		return nil
	}

	identifier := job.identifier
	if identifier == unsetJobIdentifierConstant || identifier >= registry.maximumJobs || registry.jobsByID[identifier] != job {
		return fmt.Errorf(registrationMismatchTemplateConstant, ErrJobRegistrationMismatch, identifier, wasTracked)
	}

	registry.jobsByID[identifier] = nil
	job.identifier = unsetJobIdentifierConstant
	for jobIndex, orderedJob := range registry.orderedJobs {
		if orderedJob == job {
			registry.orderedJobs = append(registry.orderedJobs[:jobIndex], registry.orderedJobs[jobIndex+1:]...)
			break
		}
	}
	registry.releaseProcesses(job)
	return nil
}

// AttachProcess records a launched member process and indexes it for status resolution.
func (registry *Registry) AttachProcess(job *Job, processID int) error {
	if owner, owned := registry.jobsByProcessID[processID]; owned {
		return fmt.Errorf(processAlreadyOwnedTemplateConstant, ErrProcessAlreadyOwned, processID, owner.identifier)
	}
	job.addMember(processID)
	registry.jobsByProcessID[processID] = job
	return nil
}

// JobForProcess resolves the job owning a process identifier.
func (registry *Registry) JobForProcess(processID int) (*Job, bool) {
	job, found := registry.jobsByProcessID[processID]
	return job, found
}

// ReleaseProcess drops a reaped process from the index.
func (registry *Registry) ReleaseProcess(processID int) {
	delete(registry.jobsByProcessID, processID)
}

// Jobs returns the tracked jobs in allocation order.
func (registry *Registry) Jobs() []*Job {
	snapshot := make([]*Job, len(registry.orderedJobs))
	copy(snapshot, registry.orderedJobs)
	return snapshot
}

// ForegroundJob returns the job currently in the foreground.
func (registry *Registry) ForegroundJob() (*Job, bool) {
	for _, job := range registry.orderedJobs {
		if job.status == StatusForeground {
			return job, true
		}
	}
	return nil, false
}

// MostRecent returns the most recently allocated job that has not terminated.
func (registry *Registry) MostRecent() (*Job, bool) {
	for jobIndex := len(registry.orderedJobs) - 1; jobIndex >= 0; jobIndex-- {
		job := registry.orderedJobs[jobIndex]
		if !job.status.Terminated() {
			return job, true
		}
	}
	return nil, false
}

// Len returns the number of tracked jobs.
func (registry *Registry) Len() int {
	return len(registry.orderedJobs)
}

func (registry *Registry) releaseProcesses(job *Job) {
	for _, member := range job.members {
		if owner, owned := registry.jobsByProcessID[member.ID]; owned && owner == job {
			delete(registry.jobsByProcessID, member.ID)
		}
	}
}
