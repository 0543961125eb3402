package l2d

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// 记录调用的Runner，pdal调用时解析pipeline并生成空的输出文件
type fakeRunner struct {
	calls     [][]string
	pipelines []pipeline
	failTool  string
	// 不为空时用于生成writers.gdal的输出，否则写出空文件
	writeRaster func(path string) error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (*ExecResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == f.failTool {
		return &ExecResult{ExitCode: 1, Stderr: []byte("boom")}, &ExternalToolError{Tool: name, Args: args, ExitCode: 1, Stderr: "boom"}
	}
	if len(args) == 2 && args[0] == "pipeline" {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return nil, err
		}
		var pl pipeline
		if err = json.Unmarshal(data, &pl); err != nil {
			return nil, err
		}
		f.pipelines = append(f.pipelines, pl)
		for _, st := range pl.Pipeline {
			if st["type"] != "writers.gdal" {
				continue
			}
			out := st["filename"].(string)
			if f.writeRaster != nil {
				err = f.writeRaster(out)
			} else {
				err = os.WriteFile(out, nil, 0o644)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return &ExecResult{}, nil
}

func newTestToolbox(r Runner) *Toolbox {
	return NewToolbox(Config{Runner: r, Pdal: "pdal", GdalBin: ""})
}

// LAS 1.2公共头块布局
type rawLasHeader struct {
	Signature         [4]byte
	FileSourceID      uint16
	GlobalEncoding    uint16
	GUID              [16]byte
	VersionMajor      uint8
	VersionMinor      uint8
	SystemIdentifier  [32]byte
	GeneratingSoft    [32]byte
	CreationDay       uint16
	CreationYear      uint16
	HeaderSize        uint16
	PointDataOffset   uint32
	NumVLRs           uint32
	PointFormat       uint8
	PointRecordLength uint16
	LegacyPointCount  uint32
	LegacyByReturn    [5]uint32
	ScaleX            float64
	ScaleY            float64
	ScaleZ            float64
	OffsetX           float64
	OffsetY           float64
	OffsetZ           float64
	MaxX              float64
	MinX              float64
	MaxY              float64
	MinY              float64
	MaxZ              float64
	MinZ              float64
}

// LAS 1.4头块长度，写出的文件补零到该长度
const lasPaddedLen = 375

// 写出仅含公共头块、无点记录的LAS文件
func writeLas(t *testing.T, path string, b Bounds) {
	t.Helper()
	h := rawLasHeader{
		VersionMajor:      1,
		VersionMinor:      2,
		HeaderSize:        lasHeaderMinLen,
		PointDataOffset:   lasPaddedLen,
		PointRecordLength: 20,
		ScaleX:            0.01,
		ScaleY:            0.01,
		ScaleZ:            0.01,
		MinX:              b[0],
		MinY:              b[1],
		MaxX:              b[2],
		MaxY:              b[3],
	}
	copy(h.Signature[:], LAS_SIGNATURE)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h))
	buf.Write(make([]byte, lasPaddedLen-buf.Len()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func touch(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], nil, 0o644))
	}
	return paths
}

// 简单的矩形范围
type rectBoundary struct {
	name string
	b    Bounds
}

func (r rectBoundary) Basename() string           { return r.name }
func (r rectBoundary) Intersects(b Bounds) bool   { return r.b.Intersects(b) }
func (r rectBoundary) Attr(string) (string, bool) { return "", false }
