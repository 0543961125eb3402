package l2d

import (
	"fmt"

	"github.com/PCLC7Z2/lidar2dems/grid"
	"github.com/PCLC7Z2/lidar2dems/log"
	"github.com/PCLC7Z2/lidar2dems/utils"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const DefaultHistBins = 50

// 统计栅格有效值；histPng不为空时另存有效值直方图
func (t *Toolbox) RasterStats(tif, histPng string, bins int) (s grid.Summary, err error) {
	r, err := t.ReadRaster(tif)
	if err != nil {
		return
	}
	s = r.Summarize()
	log.Info(t.logTag+"raster stats", zap.String("tif", tif), zap.Int("valid", s.Valid), zap.Int("nodata", s.NoData),
		zap.Float64("min", s.Min), zap.Float64("max", s.Max), zap.Float64("mean", s.Mean))
	if histPng == "" {
		return
	}
	if s.Valid == 0 {
		err = fmt.Errorf("%w: %s has no valid cell", ErrInvalidTif, tif)
		return
	}
	if bins <= 0 {
		bins = DefaultHistBins
	}
	p := plot.New()
	p.Title.Text = utils.GetFilenameWithoutExt(tif)
	p.X.Label.Text = "value"
	p.Y.Label.Text = "cells"
	h, err := plotter.NewHist(plotter.Values(r.ValidValues()), bins)
	if err != nil {
		return
	}
	p.Add(h)
	if err = p.Save(8*vg.Inch, 5*vg.Inch, histPng); err != nil {
		log.Error(t.logTag+"save histogram failed", zap.String("png", histPng), zap.Error(err))
		return
	}
	log.Info(t.logTag+"saved histogram", zap.String("png", histPng), zap.Int("bins", bins))
	return
}
