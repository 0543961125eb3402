package l2d

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PCLC7Z2/lidar2dems/grid"
	"github.com/PCLC7Z2/lidar2dems/log"
	"github.com/PCLC7Z2/lidar2dems/utils"

	"go.uber.org/zap"
)

var (
	demRadiusPattern = regexp.MustCompile(`^(?:density|dsm|dtm)_r(\d+(?:\.\d+)?)`)
	radiusPattern    = regexp.MustCompile(`_r(\d+(?:\.\d+)?)`)
)

// 由DTM与DSM生成CHM，假定两者网格一致
func (t *Toolbox) CreateChm(dtm, dsm, chm string) (out string, err error) {
	dtmR, err := t.ReadRaster(dtm)
	if err != nil {
		return
	}
	dsmR, err := t.ReadRaster(dsm)
	if err != nil {
		return
	}
	if !dtmR.SameShape(dsmR.Grid) {
		log.Warn(t.logTag+"dtm and dsm size differ, crop to smallest",
			zap.Ints("dtm", []int{dtmR.Rows, dtmR.Cols}), zap.Ints("dsm", []int{dsmR.Rows, dsmR.Cols}))
	}
	r := &Raster{
		Grid:         grid.Difference(dtmR.Grid, dsmR.Grid),
		GeoTransform: dtmR.GeoTransform,
		Projection:   dtmR.Projection,
	}
	if err = t.WriteRaster(chm, r); err != nil {
		return
	}
	s := r.Summarize()
	log.Info(t.logTag+"created chm", zap.String("chm", chm), zap.Int("valid", s.Valid), zap.Float64("max", s.Max), zap.Float64("mean", s.Mean))
	out = chm
	return
}

// 从文件名解析半径：优先取DEM类型后的_r<radius>，否则取第一个_r<radius>
// 分要素输出的要素名也可能含_r，如 dtm_r1_plot_r3-0.idw.tif
func ParseRadius(path string) (radius float64, err error) {
	bname, _ := SplitExts(filepath.Base(path))
	m := demRadiusPattern.FindStringSubmatch(bname)
	if m == nil {
		m = radiusPattern.FindStringSubmatch(bname)
	}
	if m == nil {
		err = fmt.Errorf("%w: %s", ErrNoRadius, path)
		return
	}
	return strconv.ParseFloat(m[1], 64)
}

func RasterRefsFromPaths(paths []string) (refs []RasterRef, err error) {
	refs = make([]RasterRef, 0, len(paths))
	var r float64
	for _, p := range paths {
		if r, err = ParseRadius(p); err != nil {
			return
		}
		refs = append(refs, RasterRef{Path: p, Radius: r})
	}
	return
}

// 多半径栅格补缺：按半径升序，小半径优先，剩余空洞插值；给定边界时按边界剪切
func (t *Toolbox) GapFill(rasters []RasterRef, fout string, cut Cutline, method grid.Method) (out string, err error) {
	start := time.Now()
	if len(rasters) == 0 {
		err = ErrNoRasters
		return
	}
	refs := append([]RasterRef(nil), rasters...)
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Radius < refs[j].Radius
	})
	var (
		first *Raster
		r     *Raster
		grids = make([]*grid.Grid, 0, len(refs))
	)
	for _, ref := range refs {
		if r, err = t.ReadRaster(ref.Path); err != nil {
			return
		}
		if first == nil {
			first = r
		}
		grids = append(grids, r.Grid)
	}
	merged, err := grid.Merge(grids)
	if err != nil {
		err = fmt.Errorf("gap fill %s: %w", fout, err)
		return
	}
	gaps := merged.CountNoData()
	filled, err := grid.Interpolate(merged, method)
	if err != nil {
		return
	}
	result := &Raster{Grid: filled, GeoTransform: first.GeoTransform, Projection: first.Projection}
	if err = t.WriteRaster(fout, result); err != nil {
		return
	}
	if cut != nil {
		xres, yres := result.Resolution()
		bname, ext := SplitExts(fout)
		clip := bname + CLIP_SUFFIX + ext
		if err = t.CookieCutter(fout, clip, cut, xres, yres); err != nil {
			return
		}
		if err = os.Rename(clip, fout); err != nil {
			return
		}
	}
	log.Info(t.logTag+"completed gap-filling", zap.String("out", fout), zap.Int("rasters", len(refs)),
		zap.Int("interpolated", gaps), zap.String("method", string(method)), zap.Duration("elapsed", time.Since(start)))
	out = fout
	return
}

// 合并多个栅格为VRT，给定站点时按站点外包范围对齐；文件已存在且不覆盖时直接返回
func (t *Toolbox) CreateVrt(ctx context.Context, filenames []string, fout string, site *Site, overwrite bool) (out string, err error) {
	out = fout
	if utils.FileExists(fout) && !overwrite {
		return
	}
	args := []string{}
	if !t.verbose {
		args = append(args, "-q")
	}
	if site != nil {
		args = append(args, "-te")
		args = append(args, site.Bounds().Args()...)
	}
	args = append(args, fout)
	args = append(args, filenames...)
	log.Info(t.logTag+"combining files into vrt", zap.Int("cnt", len(filenames)), zap.String("vrt", fout))
	err = t.run(ctx, t.gdalTool(GDALBUILDVRT_BIN), args...)
	return
}

// 生成山体阴影图 <filename去扩展名>_hillshade.tif
func (t *Toolbox) CreateHillshade(ctx context.Context, filename string) (out string, err error) {
	out = strings.TrimSuffix(filename, filepath.Ext(filename)) + HILLSHADE_SUFFIX + FILE_EXT_TIF
	log.Info(t.logTag+"creating hillshade", zap.String("in", filename), zap.String("out", out))
	err = t.run(ctx, t.gdalTool(GDALDEM_BIN), "hillshade", filename, out)
	return
}
