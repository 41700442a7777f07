// Package hooktool implements the unit, config, image and spec ports by
// running the lifecycle framework's hook tools as subprocesses.
package hooktool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kompox/knative-charms/internal/logging"
)

// Runner executes a hook tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs hook tools with os/exec. Tools are looked up in Dir when set,
// otherwise in PATH.
type ExecRunner struct {
	Dir string
}

// Run executes the tool and returns stdout. A non-zero exit is reported with
// the tool's stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := logging.FromContext(ctx)
	bin := name
	if r.Dir != "" {
		bin = filepath.Join(r.Dir, name)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug(ctx, "HookTool:run", "tool", name, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		msg := strings.TrimSpace(stderr.String())
		logger.Warn(ctx, "HookTool:fail", "tool", name, "exit_code", exitCode, "stderr", msg)
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}
