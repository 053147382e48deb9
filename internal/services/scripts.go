package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// ScriptService runs the configured post-processing command against a folder.
//
// The folder is appended as the last argument. Stdout and stderr are merged,
// logged line by line as they arrive, and captured in the result.
type ScriptService struct {
	cfg    shared.ScriptConfig
	logger *log.Logger
}

// NewScriptService creates a ScriptService from the post-process script config.
func NewScriptService(cfg shared.ScriptConfig, logger *log.Logger) *ScriptService {
	if logger == nil {
		logger = log.Default()
	}
	return &ScriptService{cfg: cfg, logger: logger}
}

// Run executes the script. A non-zero exit returns the captured result together with [shared.ErrScriptFailed].
func (s *ScriptService) Run(ctx context.Context, dir string) (*models.Script, error) {
	if strings.TrimSpace(s.cfg.Command) == "" {
		return nil, fmt.Errorf("%w: scripts.post_process.command", shared.ErrMissingConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TimeoutDuration())
	defer cancel()

	args := append(append([]string{}, s.cfg.Args...), dir)
	cmd := exec.CommandContext(ctx, s.cfg.Command, args...)
	cmd.WaitDelay = 5 * time.Second

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	result := &models.Script{Command: strings.Join(append([]string{s.cfg.Command}, args...), " ")}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			line := scanner.Text()
			s.logger.Info("post-process", "line", line)
			result.Output = append(result.Output, line)
		}
		_, _ = io.Copy(io.Discard, pr)
	}()

	start := time.Now()
	err := cmd.Run()
	pw.Close()
	wg.Wait()
	result.Duration = time.Since(start)

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			return result, fmt.Errorf("%w: %v", shared.ErrScriptFailed, ctx.Err())
		}
		return result, fmt.Errorf("%w: exit code %d", shared.ErrScriptFailed, result.ExitCode)
	}
	return nil, fmt.Errorf("%w: %v", shared.ErrScriptFailed, err)
}
