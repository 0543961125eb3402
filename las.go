package l2d

import (
	"fmt"
	"os"

	"github.com/edaniels/lidario"
)

const (
	LAS_SIGNATURE   = "LASF"
	lasHeaderMinLen = 227
	lasReadHeader   = "rh" // 仅读取公共头块，不读点记录
)

// 读取LAS文件公共头块
func ReadLasHeader(filename string) (h *lidario.LasHeader, err error) {
	fi, err := os.Stat(filename)
	if err != nil {
		return
	}
	if fi.Size() < lasHeaderMinLen {
		err = fmt.Errorf("%w: %s: %d bytes", ErrWrongLasHeader, filename, fi.Size())
		return
	}
	lf, err := lidario.NewLasFile(filename, lasReadHeader)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrWrongLasHeader, filename, err)
		return
	}
	defer lf.Close()
	if lf.Header.VersionMajor != 1 {
		err = fmt.Errorf("%w: %s: version %d.%d", ErrWrongLasHeader, filename, lf.Header.VersionMajor, lf.Header.VersionMinor)
		return
	}
	header := lf.Header
	h = &header
	return
}

// 读取LAS文件头中的平面范围
func ReadLasBounds(filename string) (b Bounds, err error) {
	h, err := ReadLasHeader(filename)
	if err != nil {
		return
	}
	b = Bounds{h.MinX, h.MinY, h.MaxX, h.MaxY}
	return
}
