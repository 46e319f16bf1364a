package exercise

// historyCap bounds the stage-transition history: only the last five prior
// stages are kept, oldest dropped first.
const historyCap = 5

// directionDeadband is the angle change in degrees below which movement is
// reported as stable.
const directionDeadband = 1.0

// Direction describes how the joint angle moved between consecutive frames.
type Direction string

const (
	DirectionStable     Direction = "stable"
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
)

// cyclePattern is one recognized return-to-origin stage sequence. After a
// match the history is reseeded with the pattern's anchor symbol.
type cyclePattern struct {
	seq  []Stage
	seed Stage
}

// cyclePatterns are tested in declaration order; the first pattern whose
// sequence is a suffix of the candidate wins and the rest are not consulted.
var cyclePatterns = []cyclePattern{
	{seq: []Stage{StageDown, StageNormal, StageUp, StageNormal, StageDown}, seed: StageDown},
	{seq: []Stage{StageUp, StageNormal, StageDown, StageNormal, StageUp}, seed: StageUp},
	{seq: []Stage{StageDown, StageNormal, StageDown}, seed: StageDown},
	{seq: []Stage{StageUp, StageNormal, StageUp}, seed: StageUp},
	{seq: []Stage{StageNormal, StageDown, StageNormal}, seed: StageNormal},
	{seq: []Stage{StageNormal, StageUp, StageNormal}, seed: StageNormal},
}

// Counter recognizes completed exercise cycles for one tracked subject from
// a stream of classified stages. A repetition is counted only when the
// recent transition history ends with one of the recognized cycle patterns,
// which suppresses jitter-driven over-counting near the stage boundaries.
type Counter struct {
	stage   Stage
	history [historyCap]Stage
	histLen int
	count   int

	// Per-frame diagnostics. These mirror the bookkeeping the original
	// evaluator maintained but are never consulted by the counting decision.
	lastAngle    float64
	direction    Direction
	downFrames   int
	upFrames     int
	normalFrames int
}

// NewCounter creates a Counter whose current stage and angle come from the
// classification of the first observed frame.
func NewCounter(initial Stage, angle float64) *Counter {
	return &Counter{
		stage:     initial,
		lastAngle: angle,
		direction: DirectionStable,
	}
}

// Observe feeds one classified frame into the counter and reports whether it
// completed a cycle. Frames that do not change the stage never affect the
// count; on a stage change the previous stage is appended to the bounded
// history and the candidate sequence (history + new stage) is tested against
// the cycle patterns in priority order.
func (c *Counter) Observe(angle float64, newStage Stage) bool {
	c.observeAngle(angle)
	c.observeStageFrames(newStage)

	if newStage == c.stage {
		return false
	}

	// Append the previous stage, evicting the oldest entry once full.
	if c.histLen == historyCap {
		copy(c.history[:], c.history[1:])
		c.histLen--
	}
	c.history[c.histLen] = c.stage
	c.histLen++

	matched := false
	for _, p := range cyclePatterns {
		if c.endsWith(p.seq, newStage) {
			c.count++
			c.history[0] = p.seed
			c.histLen = 1
			matched = true
			break
		}
	}

	c.stage = newStage
	return matched
}

// endsWith reports whether the history followed by next ends with seq.
func (c *Counter) endsWith(seq []Stage, next Stage) bool {
	n := len(seq)
	if n > c.histLen+1 {
		return false
	}
	if seq[n-1] != next {
		return false
	}
	offset := c.histLen - (n - 1)
	for i := 0; i < n-1; i++ {
		if c.history[offset+i] != seq[i] {
			return false
		}
	}
	return true
}

// observeAngle updates the angle-direction hint with a 1-degree dead-band.
func (c *Counter) observeAngle(angle float64) {
	last := c.lastAngle
	c.lastAngle = angle

	direction := DirectionStable
	if diff := angle - last; diff > directionDeadband {
		direction = DirectionIncreasing
	} else if diff < -directionDeadband {
		direction = DirectionDecreasing
	}
	c.direction = direction
}

// observeStageFrames advances the consecutive-frame counter for the current
// stage and zeroes the others.
func (c *Counter) observeStageFrames(stage Stage) {
	switch stage {
	case StageDown:
		c.downFrames++
		c.upFrames = 0
		c.normalFrames = 0
	case StageUp:
		c.upFrames++
		c.downFrames = 0
		c.normalFrames = 0
	default:
		c.normalFrames++
		c.downFrames = 0
		c.upFrames = 0
	}
}

// Count returns the number of completed repetitions.
func (c *Counter) Count() int {
	return c.count
}

// Stage returns the current stage.
func (c *Counter) Stage() Stage {
	return c.stage
}

// Direction returns the most recent angle-direction hint.
func (c *Counter) Direction() Direction {
	return c.direction
}

// History returns a copy of the bounded transition history, oldest first.
func (c *Counter) History() []Stage {
	out := make([]Stage, c.histLen)
	copy(out, c.history[:c.histLen])
	return out
}
