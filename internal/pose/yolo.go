package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// YOLODetector implements Detector using a Python YOLO pose-model subprocess.
// Frames are shipped to the service as length-prefixed JPEG and keypoints
// come back as one JSON object per line.
type YOLODetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewYOLODetector creates a new YOLO pose detector.
// The Python process is started lazily on first detection.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	if findPoseScript() == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}

	return &YOLODetector{config: config}, nil
}

// Detect analyzes a frame and returns landmarks for each detected subject,
// rescaled into the frame's pixel coordinates.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]PersonLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + JPEG data.
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Persons     []jsonPerson `json:"persons"`
		ModelWidth  int          `json:"model_width"`
		ModelHeight int          `json:"model_height"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	// Keypoints arrive in model-input coordinates; rescale them to the
	// original frame before handing them to the evaluator.
	sx, sy := 1.0, 1.0
	if response.ModelWidth > 0 && response.ModelHeight > 0 {
		sx = float64(frame.Cols()) / float64(response.ModelWidth)
		sy = float64(frame.Rows()) / float64(response.ModelHeight)
	}

	result := make([]PersonLandmarks, 0, len(response.Persons))
	for _, p := range response.Persons {
		if p.Score < d.config.MinConfidence {
			continue
		}
		if d.config.MaxSubjects > 0 && len(result) >= d.config.MaxSubjects {
			break
		}
		person := p.toPersonLandmarks()
		result = append(result, *person.Rescale(sx, sy))
	}

	d.resetIdleTimer()

	return result, nil
}

// SetMinConfidence adjusts the per-person score threshold at runtime.
func (d *YOLODetector) SetMinConfidence(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config.MinConfidence = v
}

// Close shuts down the Python process.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *YOLODetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findPoseScript()
	if scriptPath == "" {
		return fmt.Errorf("pose_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *YOLODetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *YOLODetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".physio/scripts/pose_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment
// relative to the executable or the user's data directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".physio/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPerson represents the JSON structure from the Python pose service.
type jsonPerson struct {
	Keypoints []jsonKeypoint `json:"keypoints"`
	Score     float64        `json:"score"`
}

type jsonKeypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

func (p jsonPerson) toPersonLandmarks() PersonLandmarks {
	lm := PersonLandmarks{Score: p.Score}

	for i := 0; i < NumLandmarks && i < len(p.Keypoints); i++ {
		lm.Points[i] = Point{
			X:          p.Keypoints[i].X,
			Y:          p.Keypoints[i].Y,
			Confidence: p.Keypoints[i].Confidence,
		}
	}

	return lm
}
