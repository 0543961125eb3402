package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	l2d "github.com/PCLC7Z2/lidar2dems"
	"github.com/PCLC7Z2/lidar2dems/grid"
	"github.com/PCLC7Z2/lidar2dems/log"
	"github.com/PCLC7Z2/lidar2dems/utils"

	"go.uber.org/zap"
)

// 浮点数列表参数，如 -dtm "1 2" 或 -dtm 1,2
type floatList []float64

func (l *floatList) String() string {
	return utils.FloatsToStr(*l, " ")
}

func (l *floatList) Set(s string) error {
	vs, err := utils.ParseFloats(s)
	if err != nil {
		return err
	}
	*l = append(*l, vs...)
	return nil
}

// 可选的浮点数参数
type optFloat struct {
	v *float64
}

func (o *optFloat) String() string {
	if o.v == nil {
		return ""
	}
	return utils.FormatFloat(*o.v)
}

func (o *optFloat) Set(s string) error {
	vs, err := utils.ParseFloats(s)
	if err != nil {
		return err
	}
	if len(vs) != 1 {
		return fmt.Errorf("expected one number, got %q", s)
	}
	o.v = &vs[0]
	return nil
}

func parseBounds(s string) (b *l2d.Bounds, err error) {
	if s == "" {
		return
	}
	vs, err := utils.ParseFloats(s)
	if err != nil {
		return
	}
	if len(vs) != 4 {
		err = fmt.Errorf("bounds need 4 numbers (xmin ymin xmax ymax), got %d", len(vs))
		return
	}
	b = &l2d.Bounds{vs[0], vs[1], vs[2], vs[3]}
	return
}

func openSite(path string) (*l2d.Site, error) {
	if path == "" {
		return nil, nil
	}
	return l2d.OpenSite(path)
}

func runCreateDems(ctx context.Context, args []string) (err error) {
	var (
		common   commonFlags
		dsm, dtm floatList
	)
	fs := newFlagSet("createdems", "filename.las [filename.las ...]")
	common.register(fs)
	fs.Var(&dsm, "dsm", "create DSM for each provided radius")
	fs.Var(&dtm, "dtm", "create DTM for each provided radius")
	epsg := fs.Int("epsg", 0, "EPSG code to assign to DEM outputs")
	outliers := fs.Float64("outliers", l2d.DefaultOutliers, "filter outliers with this StdDev threshold in the DSM")
	boundsStr := fs.String("bounds", "", "bounds (xmin ymin xmax ymax) of output files")
	outdir := fs.String("outdir", "./", "output directory")
	overwrite := fs.Bool("overwrite", false, "overwrite existing outputs")
	if err = parseFlags(fs, args); err != nil {
		return
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	bounds, err := parseBounds(*boundsStr)
	if err != nil {
		return
	}
	t := common.toolbox()
	filenames := fs.Args()
	if bounds != nil {
		if filenames, err = l2d.CheckBoundaries(filenames, *bounds); err != nil {
			return
		}
		if len(filenames) == 0 {
			return l2d.ErrNoLasFiles
		}
	}
	log.Info("processing las files into dems", zap.Int("cnt", len(filenames)))
	_, err = t.CreateDems(ctx, filenames, dsm, dtm, l2d.DemOptions{
		Outdir:    *outdir,
		Epsg:      *epsg,
		Outliers:  *outliers,
		Overwrite: *overwrite,
	})
	return
}

func runSiteDems(ctx context.Context, args []string) (err error) {
	var (
		common          commonFlags
		radii           floatList
		slope, cellsize optFloat
	)
	fs := newFlagSet("dems", "")
	common.register(fs)
	fs.Var(&radii, "radius", "create DEMs for each provided radius (default 0.56)")
	fs.Var(&slope, "slope", "classification slope (default from feature class)")
	fs.Var(&cellsize, "cellsize", "classification cellsize (default from feature class)")
	lasdir := fs.String("lasdir", "", "directory of classified LAS files")
	sitePath := fs.String("site", "", "site vector used for naming, clipping and alignment")
	piecewise := fs.Bool("features", false, "process each feature of the site separately, then mosaic")
	types := fs.String("types", "dsm,dtm", "comma separated dem types (density, dsm, dtm)")
	gapfill := fs.Bool("gapfill", true, "gap fill across radii")
	interp := fs.String("interpolation", string(grid.Nearest), "interpolation for remaining gaps (nearest, linear, idw)")
	chm := fs.Bool("chm", false, "create CHM from gap filled DSM and DTM")
	hillshade := fs.Bool("hillshade", false, "create hillshades of gap filled DEMs")
	epsg := fs.Int("epsg", 0, "EPSG code to assign to DEM outputs")
	outliers := fs.Float64("outliers", l2d.DefaultOutliers, "filter outliers with this StdDev threshold in the DSM")
	suffix := fs.String("suffix", "", "suffix appended to output names")
	outdir := fs.String("outdir", "./", "output directory")
	overwrite := fs.Bool("overwrite", false, "overwrite existing outputs")
	if err = parseFlags(fs, args); err != nil {
		return
	}
	method, err := grid.ParseMethod(*interp)
	if err != nil {
		return
	}
	if len(radii) == 0 {
		radii = floatList{0.56}
	}
	var demtypes []l2d.DemType
	for _, s := range strings.Split(*types, ",") {
		demtype := l2d.DemType(strings.TrimSpace(s))
		if _, err = l2d.DemProducts(demtype); err != nil {
			return
		}
		demtypes = append(demtypes, demtype)
	}
	t := common.toolbox()
	site, err := openSite(*sitePath)
	if err != nil {
		return
	}
	if site != nil {
		defer site.Close()
	}
	if err = utils.EnsureDir(*outdir); err != nil {
		return
	}
	_, err = t.CreateSiteDems(ctx, l2d.SiteDemOptions{
		DemOptions: l2d.DemOptions{
			Outdir:    *outdir,
			Epsg:      *epsg,
			Outliers:  *outliers,
			Suffix:    *suffix,
			Overwrite: *overwrite,
		},
		LasDir:        *lasdir,
		Site:          site,
		Piecewise:     *piecewise,
		Slope:         slope.v,
		Cellsize:      cellsize.v,
		DemTypes:      demtypes,
		Radii:         radii,
		GapFill:       *gapfill,
		Interpolation: method,
		Chm:           *chm,
		Hillshade:     *hillshade,
	})
	return
}

func runGapFill(ctx context.Context, args []string) (err error) {
	var common commonFlags
	fs := newFlagSet("gapfill", "raster_r<radius>.tif [raster_r<radius>.tif ...]")
	common.register(fs)
	fout := fs.String("o", "", "output raster")
	sitePath := fs.String("site", "", "site vector to clip the output to")
	interp := fs.String("interpolation", string(grid.Nearest), "interpolation for remaining gaps (nearest, linear, idw)")
	if err = parseFlags(fs, args); err != nil {
		return
	}
	if fs.NArg() == 0 || *fout == "" {
		fs.Usage()
		return errUsage
	}
	method, err := grid.ParseMethod(*interp)
	if err != nil {
		return
	}
	refs, err := l2d.RasterRefsFromPaths(fs.Args())
	if err != nil {
		return
	}
	t := common.toolbox()
	site, err := openSite(*sitePath)
	if err != nil {
		return
	}
	var cut l2d.Cutline
	if site != nil {
		defer site.Close()
		cut = site
	}
	_, err = t.GapFill(refs, *fout, cut, method)
	return
}

func runChm(ctx context.Context, args []string) (err error) {
	var common commonFlags
	fs := newFlagSet("chm", "")
	common.register(fs)
	dtm := fs.String("dtm", "", "DTM raster")
	dsm := fs.String("dsm", "", "DSM raster")
	fout := fs.String("o", "chm.tif", "output CHM raster")
	hillshade := fs.Bool("hillshade", false, "create hillshade of the CHM")
	if err = parseFlags(fs, args); err != nil {
		return
	}
	if *dtm == "" || *dsm == "" {
		fs.Usage()
		return errUsage
	}
	t := common.toolbox()
	out, err := t.CreateChm(*dtm, *dsm, *fout)
	if err != nil || !*hillshade {
		return
	}
	_, err = t.CreateHillshade(ctx, out)
	return
}

func runHillshade(ctx context.Context, args []string) (err error) {
	var common commonFlags
	fs := newFlagSet("hillshade", "raster.tif [raster.tif ...]")
	common.register(fs)
	if err = parseFlags(fs, args); err != nil {
		return
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	t := common.toolbox()
	for _, f := range fs.Args() {
		if _, err = t.CreateHillshade(ctx, f); err != nil {
			return
		}
	}
	return
}

func runVrt(ctx context.Context, args []string) (err error) {
	var common commonFlags
	fs := newFlagSet("vrt", "raster.tif [raster.tif ...]")
	common.register(fs)
	fout := fs.String("o", "", "output VRT")
	sitePath := fs.String("site", "", "site vector whose bounds align the VRT")
	overwrite := fs.Bool("overwrite", false, "overwrite existing VRT")
	if err = parseFlags(fs, args); err != nil {
		return
	}
	if fs.NArg() == 0 || *fout == "" {
		fs.Usage()
		return errUsage
	}
	t := common.toolbox()
	site, err := openSite(*sitePath)
	if err != nil {
		return
	}
	if site != nil {
		defer site.Close()
	}
	if _, err = os.Stat(*fout); err == nil && !*overwrite {
		log.Info("vrt exists, use -overwrite to rebuild", zap.String("vrt", *fout))
	}
	_, err = t.CreateVrt(ctx, fs.Args(), *fout, site, *overwrite)
	return
}

func runStats(ctx context.Context, args []string) (err error) {
	var common commonFlags
	fs := newFlagSet("stats", "raster.tif [raster.tif ...]")
	common.register(fs)
	hist := fs.Bool("hist", false, "save a histogram <raster>_hist.png next to each raster")
	bins := fs.Int("bins", l2d.DefaultHistBins, "histogram bins")
	if err = parseFlags(fs, args); err != nil {
		return
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	t := common.toolbox()
	for _, f := range fs.Args() {
		png := ""
		if *hist {
			png = strings.TrimSuffix(f, filepath.Ext(f)) + "_hist.png"
		}
		if _, err = t.RasterStats(f, png, *bins); err != nil {
			return
		}
	}
	return
}
