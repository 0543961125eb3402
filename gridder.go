package l2d

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PCLC7Z2/lidar2dems/log"
	"github.com/PCLC7Z2/lidar2dems/utils"

	"go.uber.org/zap"
)

// DEM生成参数
type DemOptions struct {
	Outdir     string
	Epsg       int     // 为0时不指定输出坐标系
	Outliers   float64 // DSM离群点过滤的标准差倍数，<=0时不过滤
	Resolution float64 // 为0时使用工具箱的分辨率
	Suffix     string
	Overwrite  bool
}

// PDAL pipeline中的一个stage
type pipelineStage map[string]any

type pipeline struct {
	Pipeline []pipelineStage `json:"pipeline"`
}

// 输出DEM文件名：<outdir>/<demtype>_r<radius><suffix>.<product>.tif，密度图无半径
func DemFilename(outdir string, demtype DemType, radius float64, suffix string, product Product) string {
	bname := string(demtype)
	if demtype != DemDensity {
		bname = fmt.Sprintf(DEM_NAME_TEMPLATE, demtype, formatNum(radius))
	}
	return filepath.Join(outdir, bname+suffix+"."+string(product)+FILE_EXT_TIF)
}

// 合并LAS文件生成密度图、各半径DSM及DTM
func (t *Toolbox) CreateDems(ctx context.Context, filenames []string, dsmRadii, dtmRadii []float64, opts DemOptions) (outputs []string, err error) {
	start := time.Now()
	var fouts map[Product]string
	collect := func() {
		for _, p := range sortedProducts(fouts) {
			outputs = append(outputs, fouts[p])
		}
	}
	if fouts, err = t.CreateDem(ctx, filenames, DemDensity, 0, opts); err != nil {
		return
	}
	collect()
	for _, r := range dsmRadii {
		if fouts, err = t.CreateDem(ctx, filenames, DemDSM, r, opts); err != nil {
			return
		}
		collect()
	}
	for _, r := range dtmRadii {
		if fouts, err = t.CreateDem(ctx, filenames, DemDTM, r, opts); err != nil {
			return
		}
		collect()
	}
	log.Info(t.logTag+"created dems", zap.Int("las_cnt", len(filenames)), zap.Strings("outputs", outputs), zap.Duration("elapsed", time.Since(start)))
	return
}

// 调用一次gridder生成某类DEM在某半径下的全部产品
func (t *Toolbox) CreateDem(ctx context.Context, filenames []string, demtype DemType, radius float64, opts DemOptions) (fouts map[Product]string, err error) {
	if len(filenames) == 0 {
		err = ErrNoLasFiles
		return
	}
	products, err := DemProducts(demtype)
	if err != nil {
		return
	}
	if err = utils.EnsureDir(opts.Outdir); err != nil {
		return
	}
	fouts = make(map[Product]string, len(products))
	exists := true
	for _, p := range products {
		fouts[p] = DemFilename(opts.Outdir, demtype, radius, opts.Suffix, p)
		exists = exists && utils.FileExists(fouts[p])
	}
	if exists && !opts.Overwrite {
		log.Info(t.logTag+"dem exists, skip", zap.String("demtype", string(demtype)), zap.Float64("radius", radius))
		return
	}
	pl := t.buildPipeline(filenames, demtype, radius, fouts, opts)
	plFile := utils.GetUniqFilename(opts.Outdir, TMP_PIPELINE)
	data, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return
	}
	if err = os.WriteFile(plFile, data, 0o644); err != nil {
		return
	}
	defer os.Remove(plFile)
	start := time.Now()
	log.Info(t.logTag+"start gridding", zap.String("demtype", string(demtype)), zap.Float64("radius", radius), zap.Int("las_cnt", len(filenames)))
	if err = t.run(ctx, t.pdal, "pipeline", plFile); err != nil {
		err = fmt.Errorf("gridding %s radius %s: %w", demtype, formatNum(radius), err)
		return
	}
	log.Info(t.logTag+"end gridding", zap.String("demtype", string(demtype)), zap.Float64("radius", radius), zap.Duration("elapsed", time.Since(start)))
	return
}

func (t *Toolbox) buildPipeline(filenames []string, demtype DemType, radius float64, fouts map[Product]string, opts DemOptions) (pl pipeline) {
	for _, f := range filenames {
		reader := pipelineStage{"type": "readers.las", "filename": f}
		if opts.Epsg > 0 {
			reader["override_srs"] = fmt.Sprintf("EPSG:%d", opts.Epsg)
		}
		pl.Pipeline = append(pl.Pipeline, reader)
	}
	if len(filenames) > 1 {
		pl.Pipeline = append(pl.Pipeline, pipelineStage{"type": "filters.merge"})
	}
	switch demtype {
	case DemDSM:
		if opts.Outliers > 0 {
			pl.Pipeline = append(pl.Pipeline, pipelineStage{
				"type":       "filters.outlier",
				"method":     "statistical",
				"multiplier": opts.Outliers,
				"mean_k":     OutlierMeanK,
			})
		}
		pl.Pipeline = append(pl.Pipeline, pipelineStage{
			"type":   "filters.range",
			"limits": fmt.Sprintf("Classification![%[1]d:%[1]d],Classification![%[2]d:%[2]d]", LAS_CLASS_LOW_NOISE, LAS_CLASS_HIGH_NOISE),
		})
	case DemDTM:
		pl.Pipeline = append(pl.Pipeline, pipelineStage{
			"type":   "filters.range",
			"limits": fmt.Sprintf("Classification[%[1]d:%[1]d]", LAS_CLASS_GROUND),
		})
	}
	resolution := opts.Resolution
	if resolution <= 0 {
		resolution = t.resolution
	}
	for _, p := range sortedProducts(fouts) {
		writer := pipelineStage{
			"type":        "writers.gdal",
			"filename":    fouts[p],
			"resolution":  resolution,
			"output_type": string(p),
			"gdaldriver":  GTIFF_DRIVER_NAME,
			"nodata":      DefaultNoData,
		}
		if radius > 0 {
			writer["radius"] = radius
		}
		pl.Pipeline = append(pl.Pipeline, writer)
	}
	return
}

func sortedProducts(fouts map[Product]string) []Product {
	ps := make([]Product, 0, len(fouts))
	for _, p := range productOrder {
		if _, ok := fouts[p]; ok {
			ps = append(ps, p)
		}
	}
	return ps
}

var productOrder = []Product{ProductDen, ProductCount, ProductMin, ProductMax, ProductMean, ProductIDW}
