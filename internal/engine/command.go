package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// CommandStep runs a configured external command for every sweep point.
//
// Protocol: the command receives a JSON request on stdin and must print a
// single JSON object on stdout.
//
//	{"mode": "point", "point": {...}}    -> {"<array output>": value, ...}
//	{"mode": "reduce", "results": {...}} -> {"<file output>": value, ...}
type CommandStep struct {
	Command    []string
	Workdir    string
	Env        map[string]string
	TimeoutSec int
	Logger     *slog.Logger
}

type commandRequest struct {
	Mode    string           `json:"mode"`
	Point   map[string]any   `json:"point,omitempty"`
	Results map[string][]any `json:"results,omitempty"`
}

// ComputePoint implements Step.
func (s *CommandStep) ComputePoint(ctx context.Context, point map[string]any) (map[string]any, error) {
	return s.invoke(ctx, commandRequest{Mode: "point", Point: point})
}

// Reduce implements Step.
func (s *CommandStep) Reduce(ctx context.Context, results map[string][]any) (map[string]any, error) {
	return s.invoke(ctx, commandRequest{Mode: "reduce", Results: results})
}

func (s *CommandStep) invoke(ctx context.Context, req commandRequest) (map[string]any, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("empty sweep command")
	}

	timeout := time.Duration(s.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal step request: %w", err)
	}

	cmd := exec.CommandContext(cmdCtx, s.Command[0], s.Command[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	if s.Workdir != "" {
		cmd.Dir = s.Workdir
	}
	cmd.Env = os.Environ()
	for k, v := range s.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if s.Logger != nil {
		s.Logger.Debug("sweep command finished",
			"mode", req.Mode,
			"duration_ms", duration.Milliseconds(),
			"error", runErr)
	}

	if runErr != nil {
		// The context error is the more useful signal when the step was
		// cancelled or timed out rather than genuinely failing.
		if ctxErr := cmdCtx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("sweep command failed: %w (stderr: %s)", runErr, tail(stderr.String(), 512))
	}

	var values map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &values); err != nil {
		return nil, fmt.Errorf("parse sweep command output: %w", err)
	}
	return values, nil
}

// tail returns the last max bytes of s.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
