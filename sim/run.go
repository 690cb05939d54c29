package sim

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// RunSpike executes the program under Spike and returns the raw stdout
// bytes. The same bytes are written to logFile for later inspection.
func RunSpike(ctx context.Context, cfg SpikeConfig, executable, logFile string) ([]byte, error) {
	if _, err := os.Stat(executable); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, executable)
	}

	ctx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, cfg.Binary, "--isa="+cfg.ISA, executable)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if werr := writeLog(logFile, stdout.Bytes()); werr != nil {
		return nil, werr
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("spike timed out after %s", cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: spike: %s", ErrLaunchFailed, firstLine(stderr.Bytes(), err))
	}

	slog.Debug("spike run completed",
		"executable", executable, "elapsed", time.Since(start))
	return stdout.Bytes(), nil
}

// RunRocket executes the program under the Rocket emulator. Rocket's exit
// status is unreliable, so any run that produced output is treated as a
// successful execution; only a silent failure is an error.
func RunRocket(ctx context.Context, cfg RocketConfig, executable, logFile string) ([]byte, error) {
	if _, err := os.Stat(cfg.Binary); err != nil {
		return nil, fmt.Errorf("%w: rocket emulator %s", ErrFileNotFound, cfg.Binary)
	}
	if _, err := os.Stat(executable); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, executable)
	}

	ctx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()

	args := []string{}
	if cfg.MaxCycles > 0 {
		args = append(args, fmt.Sprintf("--max-cycles=%d", cfg.MaxCycles))
	}
	args = append(args, executable)

	start := time.Now()
	cmd := exec.CommandContext(ctx, cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if werr := writeLog(logFile, stdout.Bytes()); werr != nil {
		return nil, werr
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("rocket timed out after %s", cfg.Timeout)
	}
	if err != nil && stdout.Len() == 0 && stderr.Len() == 0 {
		return nil, fmt.Errorf("%w: rocket produced no output", ErrLaunchFailed)
	}
	if err != nil {
		slog.Warn("rocket exit status indicates failure, keeping output",
			"executable", executable, "err", err)
	}

	slog.Debug("rocket run completed",
		"executable", executable, "elapsed", time.Since(start))
	return stdout.Bytes(), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func writeLog(path string, stdout []byte) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, stdout, 0o644); err != nil {
		return fmt.Errorf("write raw log: %w", err)
	}
	return nil
}

func firstLine(stderr []byte, fallback error) string {
	if i := bytes.IndexByte(stderr, '\n'); i >= 0 {
		stderr = stderr[:i]
	}
	if s := string(bytes.TrimSpace(stderr)); s != "" {
		return s
	}
	return fallback.Error()
}
