package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/physio/internal/capture"
	"github.com/ayusman/physio/internal/metrics"
	"github.com/ayusman/physio/internal/pose"
)

// readUntil reads messages until one of the wanted type arrives, skipping
// interleaved frame pushes.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)

	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed while waiting for %q: %v", msgType, err)
		}

		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid message: %v", err)
		}
		if msg["type"] == msgType {
			return msg
		}
	}

	t.Fatalf("timed out waiting for %q", msgType)
	return nil
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestEvaluationWebSocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := newTestStore(t)

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	camera := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	detector := pose.NewMockDetector()
	detector.SetPersons([]pose.PersonLandmarks{pose.ArmAtAngleLandmarks(120)})

	m := metrics.New()
	srv := httptest.NewServer(New(Config{
		Store:    s,
		Camera:   camera,
		Detector: detector,
		Metrics:  m,
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	t.Run("actions list on connect", func(t *testing.T) {
		msg := readUntil(t, conn, "actions_list")
		actions, ok := msg["actions"].([]any)
		if !ok {
			t.Fatalf("actions field missing: %v", msg)
		}
		if len(actions) != 5 {
			t.Errorf("got %d actions, want 5 defaults", len(actions))
		}
	})

	t.Run("action select", func(t *testing.T) {
		sendMsg(t, conn, map[string]any{"type": "action_select", "action_id": "arm_lift"})
		msg := readUntil(t, conn, "action_selected")
		if msg["action_name"] != "Arm Lift" {
			t.Errorf("action_name = %v, want Arm Lift", msg["action_name"])
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		sendMsg(t, conn, map[string]any{"type": "action_select", "action_id": "nope"})
		readUntil(t, conn, "error")
	})

	t.Run("evaluation pushes frames and results", func(t *testing.T) {
		sendMsg(t, conn, map[string]any{"type": "start_evaluation", "action_id": "arm_lift"})
		readUntil(t, conn, "evaluation_started")

		pf := readUntil(t, conn, "processed_frame")
		if data, _ := pf["data"].(string); data == "" {
			t.Error("processed_frame should carry base64 image data")
		}

		res := readUntil(t, conn, "result")
		if _, ok := res["angle"].(float64); !ok {
			t.Errorf("result missing angle: %v", res)
		}
		if _, ok := res["count"].(float64); !ok {
			t.Errorf("result missing count: %v", res)
		}
		if stage, _ := res["stage"].(string); stage == "" {
			t.Errorf("result missing stage: %v", res)
		}
	})

	t.Run("settings change", func(t *testing.T) {
		sendMsg(t, conn, map[string]any{
			"type":     "settings_change",
			"settings": map[string]string{"confidence": "0.3"},
		})
		readUntil(t, conn, "settings_updated")

		if detector.MinConfidence != 0.3 {
			t.Errorf("detector MinConfidence = %f, want 0.3", detector.MinConfidence)
		}

		v, err := s.Settings().Get("confidence")
		if err != nil || v != "0.3" {
			t.Errorf("confidence setting not persisted: %q, %v", v, err)
		}
	})

	t.Run("stop records the session", func(t *testing.T) {
		sendMsg(t, conn, map[string]any{"type": "stop_evaluation"})
		readUntil(t, conn, "action_stopped")

		sessions, err := s.RepSessions().ListByExercise("arm_lift")
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("got %d recorded sessions, want 1", len(sessions))
		}
		if sessions[0].ExerciseName != "Arm Lift" {
			t.Errorf("ExerciseName = %q", sessions[0].ExerciseName)
		}
	})
}
