package l2d

import (
	"fmt"
	"os"

	"github.com/PCLC7Z2/lidar2dems/grid"
	"github.com/PCLC7Z2/lidar2dems/log"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// 带地理参考的单波段栅格
type Raster struct {
	*grid.Grid
	GeoTransform [6]float64
	Projection   string
}

// X、Y方向分辨率
func (r *Raster) Resolution() (xres, yres float64) {
	xres = r.GeoTransform[1]
	yres = r.GeoTransform[5]
	if yres < 0 {
		yres = -yres
	}
	return
}

// 读取Tif第一波段
func (t *Toolbox) ReadRaster(tif string) (r *Raster, err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(t.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrInvalidTif, tif, err)
		return
	}
	defer sds.Close()
	tifBands := sds.Bands()
	if len(tifBands) == 0 {
		err = fmt.Errorf("%w: %s has no band", ErrInvalidTif, tif)
		return
	}
	band := tifBands[0]
	bandStruct := band.Structure()
	x := bandStruct.SizeX
	y := bandStruct.SizeY
	nodata, ok := band.NoData()
	if !ok {
		log.Warn(t.logTag+"tif has no nodata, use default", zap.String("tif", tif), zap.Float64("nodata", DefaultNoData))
		nodata = DefaultNoData
	}
	buf := make([]float64, x*y)
	if err = band.Read(0, 0, buf, x, y); err != nil {
		log.Error(t.logTag+"read tif band failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrTifReadFailed, tif, err)
		return
	}
	r = &Raster{Projection: sds.Projection()}
	if r.GeoTransform, err = sds.GeoTransform(); err != nil {
		log.Warn(t.logTag+"tif has no geotransform", zap.String("tif", tif), zap.Error(err))
		r.GeoTransform = [6]float64{0, 1, 0, 0, 0, -1}
		err = nil
	}
	if r.Grid, err = grid.FromData(y, x, buf, nodata); err != nil {
		return
	}
	log.Debug(t.logTag+"read tif", zap.String("tif", tif), zap.Int("width", x), zap.Int("height", y), zap.Float64("nodata", nodata))
	return
}

// 以Float64单波段GTiff写出栅格
func (t *Toolbox) WriteRaster(tif string, r *Raster) (err error) {
	ds, err := gdal.Create(gdal.GTiff, tif, 1, gdal.Float64, r.Cols, r.Rows, gdal.CreationOption("COMPRESS=LZW", "TILED=YES"))
	if err != nil {
		log.Error(t.logTag+"create tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrTifWriteFailed, tif, err)
		return
	}
	defer func() {
		if e := ds.Close(); e != nil && err == nil {
			err = fmt.Errorf("%w: %s: %v", ErrTifWriteFailed, tif, e)
		}
	}()
	if err = ds.SetGeoTransform(r.GeoTransform); err != nil {
		return
	}
	if r.Projection != "" {
		if err = ds.SetProjection(r.Projection); err != nil {
			return
		}
	}
	band := ds.Bands()[0]
	if err = band.SetNoData(r.NoData); err != nil {
		return
	}
	if err = band.Write(0, 0, r.Data, r.Cols, r.Rows); err != nil {
		log.Error(t.logTag+"write tif band failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrTifWriteFailed, tif, err)
	}
	return
}

// 按矢量边界剪切栅格并重采样到给定分辨率（范围裁到矢量外包）
func (t *Toolbox) CookieCutter(tif, out string, cut Cutline, xres, yres float64) (err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(t.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrInvalidTif, tif, err)
		return
	}
	defer sds.Close()
	cutArgs := cut.CutlineArgs()
	opts := append(append([]string{}, cutArgs...),
		"-crop_to_cutline",
		"-tr", formatNum(xres), formatNum(yres),
		"-overwrite",
	)
	if nodata, ok := sds.Bands()[0].NoData(); ok {
		opts = append(opts, "-dstnodata", formatNum(nodata))
	}
	os.Remove(out)
	ods, err := gdal.Warp(out, []*gdal.Dataset{sds}, opts, gdal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		log.Error(t.logTag+"failed to clip raster", zap.String("tif", tif), zap.Strings("cutline", cutArgs), zap.Error(err))
		return
	}
	return ods.Close()
}
