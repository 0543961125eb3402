package l2d

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoLasFiles           = errors.New("no LAS files found")
	ErrNoClassifiedLasFiles = errors.New("no classified LAS files found")
	ErrNoRasters            = errors.New("no filenames provided")
	ErrGdalDriverOpen       = errors.New("gdal driver open err")
	ErrEmptySite            = errors.New("site vector is empty")
	ErrInvalidTif           = errors.New("invalid tif")
	ErrTifReadFailed        = errors.New("tif read failed")
	ErrTifWriteFailed       = errors.New("tif write failed")
	ErrWrongLasHeader       = errors.New("wrong LAS header")
	ErrUnknownDemType       = errors.New("unknown dem type")
	ErrNoRadius             = errors.New("no radius in raster filename")
	ErrExternalTool         = errors.New("external tool failed")
)

// 外部程序执行失败
type ExternalToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s exited with code %d", e.Tool, e.ExitCode)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, ", stderr: %s", s)
	}
	return b.String()
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

func (e *ExternalToolError) Is(target error) bool {
	return target == ErrExternalTool
}
