package l2d

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PCLC7Z2/lidar2dems/log"
	"github.com/PCLC7Z2/lidar2dems/utils"

	"go.uber.org/zap"
)

// 分类LAS文件后缀：<suffix>l2d_s<slope>c<cellsize>.las
func ClassSuffix(slope, cellsize float64, suffix string) string {
	return fmt.Sprintf(CLASS_SUFFIX_TEMPLATE, suffix, formatNum(slope), formatNum(cellsize))
}

func sitePrefix(site Boundary) string {
	if site == nil {
		return ""
	}
	return site.Basename() + "_"
}

// 生成分类LAS文件的绝对路径，slope与cellsize为空时按站点分类码查找
func ClassificationFilename(site Boundary, outdir string, slope, cellsize *float64, suffix string) (string, error) {
	attrs, _ := site.(AttrGetter)
	params := ClassParams(attrs, slope, cellsize)
	name := sitePrefix(site) + ClassSuffix(params.Slope, params.Cellsize, suffix)
	return filepath.Abs(filepath.Join(outdir, name))
}

// 拆分两级扩展名，如 dsm_r1.idw.tif -> (dsm_r1, .idw.tif)
func SplitExts(filename string) (bname, ext string) {
	ext = filepath.Ext(filename)
	bname = strings.TrimSuffix(filename, ext)
	inner := filepath.Ext(bname)
	for _, e := range productExts {
		if inner == e {
			bname = strings.TrimSuffix(bname, inner)
			ext = inner + ext
			break
		}
	}
	return
}

// 各类DEM输出的产品
func DemProducts(demtype DemType) ([]Product, error) {
	products, ok := demProducts[demtype]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDemType, demtype)
	}
	return products, nil
}

// 查找目录下的LAS文件，checkOverlap时仅保留与站点相交的文件
func (t *Toolbox) FindLasFiles(lasdir string, site Boundary, checkOverlap bool) (filenames []string, err error) {
	if filenames, err = filepath.Glob(filepath.Join(lasdir, LAS_GLOB)); err != nil {
		return
	}
	sort.Strings(filenames)
	if checkOverlap && site != nil {
		if filenames, err = CheckOverlap(filenames, site); err != nil {
			return
		}
	}
	if len(filenames) == 0 {
		log.Error(t.logTag+"no las files found", zap.String("dir", lasdir))
		err = fmt.Errorf("%w in %s", ErrNoLasFiles, lasdir)
		return
	}
	log.Info(t.logTag+"found las files", zap.String("dir", lasdir), zap.Int("cnt", len(filenames)))
	return
}

// 按站点及分类参数查找已分类的LAS文件
func (t *Toolbox) FindClassifiedLasFile(lasdir string, site Boundary, params ClassParamsPair) (filenames []string, err error) {
	pattern := sitePrefix(site) + ClassSuffix(params.Slope, params.Cellsize, "")
	if filenames, err = filepath.Glob(filepath.Join(lasdir, pattern)); err != nil {
		return
	}
	if len(filenames) == 0 {
		log.Error(t.logTag+"no classified las files found", zap.String("dir", lasdir), zap.String("pattern", pattern))
		err = fmt.Errorf("%w: %s", ErrNoClassifiedLasFiles, filepath.Join(lasdir, pattern))
		return
	}
	sort.Strings(filenames)
	return
}

// 筛选LAS头文件范围与站点相交的文件
func CheckOverlap(filenames []string, site Boundary) (rets []string, err error) {
	var b Bounds
	for _, f := range filenames {
		if b, err = ReadLasBounds(f); err != nil {
			return
		}
		if site.Intersects(b) {
			rets = append(rets, f)
		}
	}
	return
}

// 筛选LAS头文件范围与给定范围相交的文件
func CheckBoundaries(filenames []string, bounds Bounds) (rets []string, err error) {
	var b Bounds
	for _, f := range filenames {
		if b, err = ReadLasBounds(f); err != nil {
			return
		}
		if b.Intersects(bounds) {
			rets = append(rets, f)
		} else {
			log.Debug("las file outside bounds", zap.String("las", f), zap.String("bounds", utils.FloatsToStr(b[:], " ")))
		}
	}
	return
}
