package l2d

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerOnce sync.Once

type Toolbox struct {
	runner             Runner
	pdal               string
	gdalBin            string
	resolution         float64
	ignoreToolFailures bool
	verbose            bool
	logTag             string
}

type Config struct {
	Runner             Runner  // 为空时使用CommandRunner
	Pdal               string  // pdal可执行文件，默认取环境变量L2D_PDAL或pdal
	GdalBin            string  // GDAL命令行工具所在目录，默认取环境变量L2D_GDAL_BIN或PATH
	Resolution         float64 // 输出栅格分辨率
	IgnoreToolFailures bool    // 外部程序失败时仅记录日志并继续
	Verbose            bool
}

// 初始化工具箱
func NewToolbox(cfg Config) *Toolbox {
	registerOnce.Do(godal.RegisterAll)
	t := &Toolbox{
		runner:             cfg.Runner,
		pdal:               cfg.Pdal,
		gdalBin:            cfg.GdalBin,
		resolution:         cfg.Resolution,
		ignoreToolFailures: cfg.IgnoreToolFailures,
		verbose:            cfg.Verbose,
		logTag:             "Toolbox:",
	}
	if t.runner == nil {
		t.runner = CommandRunner{}
	}
	if t.pdal == "" {
		if t.pdal = os.Getenv(ENV_PDAL); t.pdal == "" {
			t.pdal = PDAL_BIN
		}
	}
	if t.gdalBin == "" {
		t.gdalBin = os.Getenv(ENV_GDAL_BIN)
	}
	if t.resolution <= 0 {
		t.resolution = DefaultResolution
	}
	return t
}

func (t *Toolbox) gdalTool(name string) string {
	if t.gdalBin == "" {
		return name
	}
	return filepath.Join(t.gdalBin, name)
}
