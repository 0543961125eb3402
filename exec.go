package l2d

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/PCLC7Z2/lidar2dems/log"

	"go.uber.org/zap"
)

// 外部程序的执行结果
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// 执行外部程序；非零退出码返回*ExternalToolError
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*ExecResult, error)
}

type CommandRunner struct {
	Dir string
	Env []string
}

func (r CommandRunner) Run(ctx context.Context, name string, args ...string) (res *ExecResult, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Debug("run external tool", zap.String("cmd", cmd.String()))
	start := time.Now()
	runErr := cmd.Run()
	res = &ExecResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if runErr == nil {
		return
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	err = &ExternalToolError{
		Tool:     name,
		Args:     args,
		ExitCode: res.ExitCode,
		Stderr:   stderr.String(),
		Err:      runErr,
	}
	return
}

// 调用外部程序，按工具箱配置决定失败时是否继续
func (t *Toolbox) run(ctx context.Context, name string, args ...string) (err error) {
	res, err := t.runner.Run(ctx, name, args...)
	if err == nil {
		log.Debug(t.logTag+"external tool done", zap.String("tool", name), zap.Duration("elapsed", res.Duration))
		return
	}
	fields := []zap.Field{zap.String("tool", name), zap.String("args", strings.Join(args, " ")), zap.Error(err)}
	// 中断（如SIGINT）时不忽略失败
	if t.ignoreToolFailures && ctx.Err() == nil && errors.Is(err, ErrExternalTool) {
		log.Warn(t.logTag+"external tool failed, continuing", fields...)
		err = nil
		return
	}
	log.Error(t.logTag+"external tool failed", fields...)
	return
}
