package l2d

import (
	"context"
	"path/filepath"
	"time"

	"github.com/PCLC7Z2/lidar2dems/grid"
	"github.com/PCLC7Z2/lidar2dems/log"

	"go.uber.org/zap"
)

// 按站点（或站点内各要素）由已分类LAS生成DEM的参数
type SiteDemOptions struct {
	DemOptions
	LasDir        string
	Site          *Site
	Piecewise     bool     // 按站点内各要素分别处理，再拼接为VRT
	Slope         *float64 // 与Cellsize同时给定时不按要素分类码查找
	Cellsize      *float64
	DemTypes      []DemType
	Radii         []float64
	GapFill       bool
	Interpolation grid.Method
	Chm           bool // 补缺后的DSM、DTM均存在时生成CHM
	Hillshade     bool
}

// 一个处理单元（整个站点或其中一个要素）的输出
type SiteDemResult struct {
	Name   string
	Params ClassLookup
	Dems   map[DemType][]string // 各半径的原始产品
	Filled map[DemType]string   // 补缺后的产品
	Chm    string
	Shades []string
}

type SiteDems struct {
	Pieces  []*SiteDemResult
	Mosaics []string
}

func (o *SiteDemOptions) pieces() []Boundary {
	if o.Site == nil {
		return []Boundary{nil}
	}
	if !o.Piecewise {
		return []Boundary{o.Site}
	}
	ps := make([]Boundary, len(o.Site.Features))
	for i, f := range o.Site.Features {
		ps[i] = f
	}
	return ps
}

// 对站点逐个处理单元生成DEM，可选补缺、CHM及山体阴影；分要素处理时再拼接VRT
func (t *Toolbox) CreateSiteDems(ctx context.Context, opts SiteDemOptions) (ret SiteDems, err error) {
	start := time.Now()
	var res *SiteDemResult
	for _, piece := range opts.pieces() {
		if res, err = t.createPieceDems(ctx, piece, opts); err != nil {
			return
		}
		ret.Pieces = append(ret.Pieces, res)
	}
	if opts.Piecewise && opts.Site != nil && len(ret.Pieces) > 1 {
		if ret.Mosaics, err = t.mosaicPieces(ctx, ret.Pieces, opts); err != nil {
			return
		}
	}
	log.Info(t.logTag+"site dems complete", zap.Int("pieces", len(ret.Pieces)), zap.Strings("mosaics", ret.Mosaics), zap.Duration("elapsed", time.Since(start)))
	return
}

func (t *Toolbox) createPieceDems(ctx context.Context, piece Boundary, opts SiteDemOptions) (res *SiteDemResult, err error) {
	attrs, _ := piece.(AttrGetter)
	res = &SiteDemResult{
		Params: ClassParams(attrs, opts.Slope, opts.Cellsize),
		Dems:   map[DemType][]string{},
		Filled: map[DemType]string{},
	}
	demOpts := opts.DemOptions
	if piece != nil {
		res.Name = piece.Basename()
		if opts.Piecewise {
			demOpts.Suffix += "_" + res.Name
		}
	}
	log.Info(t.logTag+"process piece", zap.String("name", res.Name), zap.Float64("slope", res.Params.Slope),
		zap.Float64("cellsize", res.Params.Cellsize), zap.Stringer("params", res.Params.Source))
	lasfiles, err := t.FindClassifiedLasFile(opts.LasDir, piece, res.Params.ClassParamsPair)
	if err != nil {
		return
	}
	// 按处理单元自身的边界剪切，分要素时即该要素
	cut, _ := piece.(Cutline)
	var fouts map[Product]string
	for _, demtype := range opts.DemTypes {
		radii := opts.Radii
		if demtype == DemDensity {
			radii = []float64{0}
		}
		var refs []RasterRef
		for _, r := range radii {
			if fouts, err = t.CreateDem(ctx, lasfiles, demtype, r, demOpts); err != nil {
				return
			}
			for _, p := range sortedProducts(fouts) {
				res.Dems[demtype] = append(res.Dems[demtype], fouts[p])
			}
			if f, ok := fouts[ProductIDW]; ok {
				refs = append(refs, RasterRef{Path: f, Radius: r})
			}
		}
		if !opts.GapFill || demtype == DemDensity || len(refs) == 0 {
			continue
		}
		fout := filepath.Join(demOpts.Outdir, string(demtype)+demOpts.Suffix+"."+string(ProductIDW)+FILE_EXT_TIF)
		if res.Filled[demtype], err = t.GapFill(refs, fout, cut, opts.Interpolation); err != nil {
			return
		}
	}
	dsm, okS := res.Filled[DemDSM]
	dtm, okT := res.Filled[DemDTM]
	if opts.Chm && okS && okT {
		chm := filepath.Join(demOpts.Outdir, "chm"+demOpts.Suffix+FILE_EXT_TIF)
		if res.Chm, err = t.CreateChm(dtm, dsm, chm); err != nil {
			return
		}
	}
	if opts.Hillshade {
		var shade string
		for _, demtype := range []DemType{DemDSM, DemDTM} {
			if f, ok := res.Filled[demtype]; ok {
				if shade, err = t.CreateHillshade(ctx, f); err != nil {
					return
				}
				res.Shades = append(res.Shades, shade)
			}
		}
	}
	return
}

// 将各要素的同类产品拼接为按站点范围对齐的VRT
func (t *Toolbox) mosaicPieces(ctx context.Context, results []*SiteDemResult, opts SiteDemOptions) (vrts []string, err error) {
	groups := map[string][]string{}
	var names []string
	add := func(name, f string) {
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], f)
	}
	for _, res := range results {
		for _, demtype := range opts.DemTypes {
			if f, ok := res.Filled[demtype]; ok {
				add(string(demtype), f)
			}
		}
		if res.Chm != "" {
			add("chm", res.Chm)
		}
	}
	var vrt string
	for _, name := range names {
		fout := filepath.Join(opts.Outdir, name+opts.Suffix+FILE_EXT_VRT)
		if vrt, err = t.CreateVrt(ctx, groups[name], fout, opts.Site, opts.Overwrite); err != nil {
			return
		}
		vrts = append(vrts, vrt)
	}
	return
}
