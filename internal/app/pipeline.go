package app

import (
	"log/slog"
	"time"

	"github.com/ayusman/physio/internal/capture"
	"github.com/ayusman/physio/internal/pose"
)

// runPipeline is the main capture loop. It manages the transition between
// idle and active frame rates based on motion detection, and while an
// evaluation is running it feeds detected poses to the session.
//
// Pipeline logic:
//  1. Start in idle mode (IdleFPS)
//  2. On motion detected, switch to active mode (ActiveFPS)
//  3. Run pose detection and evaluate the primary subject
//  4. After 2s without motion, switch back to idle mode
func (a *App) runPipeline(stopCh <-chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()
	lastCount := 0

	frameInterval := time.Second / time.Duration(capture.IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				slog.Error("error reading frame", "error", err)
				continue
			}
			if a.config.Metrics != nil {
				a.config.Metrics.FramesCaptured.Add(1)
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(capture.ActiveFPS)
					frameInterval = time.Second / time.Duration(capture.ActiveFPS)
					ticker.Reset(frameInterval)
					slog.Debug("switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(capture.IdleFPS)
					frameInterval = time.Second / time.Duration(capture.IdleFPS)
					ticker.Reset(frameInterval)
					slog.Debug("switched to idle mode")
				}
			}

			if !activeMode || !a.IsEvaluating() {
				frame.Close()
				if a.config.Metrics != nil {
					a.config.Metrics.FramesSkipped.Add(1)
				}
				continue
			}

			persons, err := a.detector.Detect(frame)
			frame.Close()

			if err != nil {
				slog.Error("error detecting pose", "error", err)
				if a.config.Metrics != nil {
					a.config.Metrics.DetectErrors.Add(1)
				}
				continue
			}

			var person *pose.PersonLandmarks
			if len(persons) > 0 {
				person = &persons[0]
			}

			result := a.session.Evaluate(person)

			// SetExercise resets the session counts.
			if result.Count < lastCount {
				lastCount = result.Count
			}

			if a.config.Metrics != nil {
				a.config.Metrics.FramesEvaluated.Add(1)
				a.config.Metrics.PersonsDetected.Add(uint64(len(persons)))
			}

			if result.Count > lastCount {
				if a.config.Metrics != nil {
					a.config.Metrics.RepsCounted.Add(uint64(result.Count - lastCount))
				}
				slog.Info("repetition counted",
					"count", result.Count,
					"angle", result.Angle,
					"stage", string(result.Stage))
				lastCount = result.Count
			}
		}
	}
}
