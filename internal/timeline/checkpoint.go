package timeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CheckpointPolicy decides when AddNode creates a checkpoint on its own.
type CheckpointPolicy struct {
	Enabled  bool
	Interval time.Duration
}

// Policy returns the auto-checkpoint policy in effect for the timeline.
func (t *Timeline) Policy() CheckpointPolicy {
	return CheckpointPolicy{
		Enabled:  !t.opts.DisableAutoCheckpoint,
		Interval: t.opts.CheckpointInterval,
	}
}

// ShouldCheckpoint reports whether more than Interval has elapsed between the
// latest checkpointed node and now. A zero latest means no checkpoint exists.
func (p CheckpointPolicy) ShouldCheckpoint(latest, now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if latest.IsZero() {
		return true
	}
	return now.Sub(latest) > p.Interval
}

// LatestCheckpointTime returns the newest timestamp among all nodes bound by
// a checkpoint, or the zero time if there are none.
func (t *Timeline) LatestCheckpointTime() time.Time {
	var latest time.Time
	for _, cp := range t.checkpoints {
		n, ok := t.nodes.get(cp.NodeID)
		if !ok {
			continue
		}
		if n.Timestamp.After(latest) {
			latest = n.Timestamp
		}
	}
	return latest
}

func (t *Timeline) autoCheckpoint(n *Node, now time.Time) {
	if !t.Policy().ShouldCheckpoint(t.LatestCheckpointTime(), now) {
		return
	}
	name := t.autoCheckpointName(now)
	t.bindCheckpoint(name, n.ID, n.Branch)
	t.log.Debug("auto checkpoint",
		zap.String("checkpoint", name),
		zap.String("node", string(n.ID)),
	)
}

// autoCheckpointName derives a name from now. An existing name is never
// rebound; a numeric suffix is appended instead.
func (t *Timeline) autoCheckpointName(now time.Time) string {
	base := "auto-" + now.UTC().Format("20060102-150405")
	name := base
	for i := 2; ; i++ {
		if _, exists := t.checkpoints[name]; !exists {
			return name
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}
