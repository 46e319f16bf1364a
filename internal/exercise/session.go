package exercise

import (
	"sync"

	"github.com/ayusman/physio/internal/pose"
)

// DefaultTrackID identifies the single tracked subject. The session API
// accepts an explicit track id so that multi-subject support can be added
// without breaking the contract, but only one subject is tracked today.
const DefaultTrackID = 0

// Result is the per-frame evaluation outcome handed back to the transport
// and overlay layers. Angle is 0.0 when the geometry is undefined; Stage is
// StageNone when there is no active exercise or no detection.
type Result struct {
	Angle float64 `json:"angle"`
	Count int     `json:"count"`
	Stage Stage   `json:"stage"`
}

// Session evaluates landmark frames against the active exercise definition
// and owns all per-track counting state. A Session must not be shared
// across client sessions; each client owns its own. SetExercise and
// Evaluate are serialized internally.
type Session struct {
	mu     sync.Mutex
	def    *Definition
	tracks map[int]*Counter
}

// NewSession creates an empty Session with no active exercise.
func NewSession() *Session {
	return &Session{tracks: make(map[int]*Counter)}
}

// SetExercise installs the active definition and clears all track state.
// Counts and histories never survive an exercise change.
func (s *Session) SetExercise(def Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := def
	s.def = &d
	s.tracks = make(map[int]*Counter)
}

// Exercise returns the active definition, if one is set.
func (s *Session) Exercise() (Definition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.def == nil {
		return Definition{}, false
	}
	return *s.def, true
}

// Evaluate processes one frame for the default track.
func (s *Session) Evaluate(person *pose.PersonLandmarks) Result {
	return s.EvaluateTrack(DefaultTrackID, person)
}

// EvaluateTrack processes one frame for the given track: angle, stage, and
// counter advance. A nil person means no detection this frame; the track's
// persisted count is reported with StageNone so a single missed frame never
// appears to reset progress.
func (s *Session) EvaluateTrack(trackID int, person *pose.PersonLandmarks) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.def == nil {
		return Result{Stage: StageNone}
	}

	if person == nil {
		res := Result{Stage: StageNone}
		if c, ok := s.tracks[trackID]; ok {
			res.Count = c.Count()
		}
		return res
	}

	angle, err := s.def.AngleFor(person)
	if err != nil {
		// Undefined geometry degrades to the sentinel angle for this frame
		// without advancing the counter.
		res := Result{Stage: StageNone}
		if c, ok := s.tracks[trackID]; ok {
			res.Count = c.Count()
			res.Stage = c.Stage()
		}
		return res
	}

	stage := Classify(angle, s.def.DownAngle, s.def.UpAngle)

	c, ok := s.tracks[trackID]
	if !ok {
		c = NewCounter(stage, angle)
		s.tracks[trackID] = c
	}
	c.Observe(angle, stage)

	return Result{Angle: angle, Count: c.Count(), Stage: c.Stage()}
}

// Count returns the persisted repetition count for the given track.
func (s *Session) Count(trackID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.tracks[trackID]; ok {
		return c.Count()
	}
	return 0
}
