package timeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMaxBranches is the branch cap applied when Options.MaxBranches is zero.
	DefaultMaxBranches = 10

	// DefaultCheckpointInterval is the auto-checkpoint interval applied when
	// Options.CheckpointInterval is zero.
	DefaultCheckpointInterval = 15 * time.Minute

	// InitialCheckpoint is the checkpoint bound to the root node at creation.
	InitialCheckpoint = "initial"

	// MainBranchName is the name given to the branch created with the timeline.
	MainBranchName = "main"
)

// Options configures a Timeline.
type Options struct {
	// MaxBranches caps the number of branches, main branch included.
	MaxBranches int

	// CheckpointInterval is how long after the latest checkpointed node a new
	// node triggers an automatic checkpoint.
	CheckpointInterval time.Duration

	// DisableAutoCheckpoint turns the auto-checkpoint policy off.
	DisableAutoCheckpoint bool

	// Logger receives debug events. Nil means no logging.
	Logger *zap.Logger

	// NewID generates node and branch identifiers. Nil means random UUIDs.
	NewID func() string
}

// DefaultOptions returns the default timeline options.
func DefaultOptions() Options {
	return Options{
		MaxBranches:        DefaultMaxBranches,
		CheckpointInterval: DefaultCheckpointInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxBranches <= 0 {
		o.MaxBranches = DefaultMaxBranches
	}
	if o.CheckpointInterval <= 0 {
		o.CheckpointInterval = DefaultCheckpointInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	return o
}
