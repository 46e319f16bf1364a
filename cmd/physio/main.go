package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/lmittmann/tint"

	"github.com/ayusman/physio/internal/app"
	"github.com/ayusman/physio/internal/metrics"
	"github.com/ayusman/physio/internal/server"
	"github.com/ayusman/physio/internal/store"
	"github.com/ayusman/physio/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	dbPath := flag.String("db", "", "SQLite database path (default ~/.physio/physio.db)")
	useTray := flag.Bool("tray", false, "run with a system tray menu")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	))

	path := *dbPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}

		dbDir := filepath.Join(homeDir, ".physio")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		path = filepath.Join(dbDir, "physio.db")
	}

	st, err := store.New(path)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	m := metrics.New()

	a := app.New(app.Config{
		Store:    st,
		CameraID: *cameraID,
		Metrics:  m,
	})

	webDir := findWebDir()
	if webDir != "" {
		slog.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Camera:    a.Camera(),
		Detector:  a.Detector(),
		Metrics:   m,
	})

	if err := a.Start(); err != nil {
		slog.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Stop()

	if *useTray {
		go serve(srv, *addr)
		runTray(a, *addr)
		return
	}

	serve(srv, *addr)
}

func serve(srv *server.Server, addr string) {
	slog.Info("starting server", "addr", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// runTray blocks running the system tray event loop.
func runTray(a *app.App, addr string) {
	t := tray.New()

	t.OnToggle(func(evaluating bool) {
		if evaluating {
			if err := a.StartEvaluation(); err != nil {
				slog.Warn("cannot start evaluation", "error", err)
			}
		} else {
			a.StopEvaluation()
			t.SetCount(a.Count())
		}
	})

	t.OnDashboard(func() {
		openBrowser(fmt.Sprintf("http://localhost%s", addr))
	})

	t.OnQuit(func() {
		a.Stop()
	})

	t.Run()
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir searches for the web directory in common locations.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".physio", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
