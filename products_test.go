package l2d

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/PCLC7Z2/lidar2dems/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nd = DefaultNoData

func writeTestRaster(t *testing.T, tb *Toolbox, path string, rows [][]float64) {
	t.Helper()
	g, err := grid.FromRows(rows, nd)
	require.NoError(t, err)
	r := &Raster{Grid: g, GeoTransform: [6]float64{500000, 1, 0, 4000000, 0, -1}}
	require.NoError(t, tb.WriteRaster(path, r))
}

func TestParseRadius(t *testing.T) {
	r, err := ParseRadius("/out/dtm_r0.56.idw.tif")
	require.NoError(t, err)
	assert.Equal(t, 0.56, r)
	r, err = ParseRadius("dsm_r10_site-1.idw.tif")
	require.NoError(t, err)
	assert.Equal(t, 10.0, r)
	r, err = ParseRadius("dtm_r1_plot_r3-0.idw.tif")
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
	r, err = ParseRadius("/out/merged_r2.tif")
	require.NoError(t, err)
	assert.Equal(t, 2.0, r)
	_, err = ParseRadius("density.count.tif")
	assert.ErrorIs(t, err, ErrNoRadius)

	refs, err := RasterRefsFromPaths([]string{"dtm_r2.idw.tif", "dtm_r10.idw.tif"})
	require.NoError(t, err)
	assert.Equal(t, []RasterRef{{"dtm_r2.idw.tif", 2}, {"dtm_r10.idw.tif", 10}}, refs)
}

func TestCreateVrt(t *testing.T) {
	dir := t.TempDir()
	fr := &fakeRunner{}
	tb := newTestToolbox(fr)
	fout := filepath.Join(dir, "dtm.vrt")

	out, err := tb.CreateVrt(context.Background(), []string{"a.tif", "b.tif"}, fout, nil, false)
	require.NoError(t, err)
	assert.Equal(t, fout, out)
	require.Len(t, fr.calls, 1)
	assert.Equal(t, []string{"gdalbuildvrt", "-q", fout, "a.tif", "b.tif"}, fr.calls[0])

	touch(t, dir, "dtm.vrt")
	_, err = tb.CreateVrt(context.Background(), []string{"a.tif"}, fout, nil, false)
	require.NoError(t, err)
	assert.Len(t, fr.calls, 1, "existing vrt is reused")

	site := &Site{Path: "site.shp", bounds: Bounds{1, 2, 3.5, 4}}
	_, err = tb.CreateVrt(context.Background(), []string{"a.tif"}, fout, site, true)
	require.NoError(t, err)
	require.Len(t, fr.calls, 2)
	assert.Equal(t, []string{"gdalbuildvrt", "-q", "-te", "1", "2", "3.5", "4", fout, "a.tif"}, fr.calls[1])
}

func TestCreateHillshade(t *testing.T) {
	fr := &fakeRunner{}
	tb := NewToolbox(Config{Runner: fr, GdalBin: "/opt/gdal/bin"})

	out, err := tb.CreateHillshade(context.Background(), "/out/dsm.idw.tif")
	require.NoError(t, err)
	assert.Equal(t, "/out/dsm.idw_hillshade.tif", out)
	assert.Equal(t, []string{"/opt/gdal/bin/gdaldem", "hillshade", "/out/dsm.idw.tif", out}, fr.calls[0])

	fr.failTool = "/opt/gdal/bin/gdaldem"
	_, err = tb.CreateHillshade(context.Background(), "/out/dtm.idw.tif")
	assert.ErrorIs(t, err, ErrExternalTool)
}

func TestRasterRoundTrip(t *testing.T) {
	tb := newTestToolbox(&fakeRunner{})
	f := filepath.Join(t.TempDir(), "a.tif")
	writeTestRaster(t, tb, f, [][]float64{{1, 2, 3}, {4, nd, 6}})

	r, err := tb.ReadRaster(f)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Rows)
	assert.Equal(t, 3, r.Cols)
	assert.Equal(t, nd, r.NoData)
	assert.Equal(t, []float64{1, 2, 3, 4, nd, 6}, r.Data)
	assert.Equal(t, [6]float64{500000, 1, 0, 4000000, 0, -1}, r.GeoTransform)
	xres, yres := r.Resolution()
	assert.Equal(t, 1.0, xres)
	assert.Equal(t, 1.0, yres)

	_, err = tb.ReadRaster(filepath.Join(t.TempDir(), "missing.tif"))
	assert.ErrorIs(t, err, ErrInvalidTif)
}

func TestCreateChm(t *testing.T) {
	dir := t.TempDir()
	tb := newTestToolbox(&fakeRunner{})
	dtm := filepath.Join(dir, "dtm.idw.tif")
	dsm := filepath.Join(dir, "dsm.idw.tif")
	writeTestRaster(t, tb, dtm, [][]float64{{10, 10, 10}, {nd, 10, 10}})
	writeTestRaster(t, tb, dsm, [][]float64{{12, nd}, {15, 13}, {1, 1}})

	out, err := tb.CreateChm(dtm, dsm, filepath.Join(dir, "chm.tif"))
	require.NoError(t, err)
	r, err := tb.ReadRaster(out)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Rows)
	assert.Equal(t, 2, r.Cols)
	assert.Equal(t, []float64{2, nd, nd, 3}, r.Data)
}

func TestGapFillOrdersByRadius(t *testing.T) {
	dir := t.TempDir()
	tb := newTestToolbox(&fakeRunner{})
	r2 := filepath.Join(dir, "dtm_r2.idw.tif")
	r10 := filepath.Join(dir, "dtm_r10.idw.tif")
	r5 := filepath.Join(dir, "dtm_r5.idw.tif")
	writeTestRaster(t, tb, r2, [][]float64{{1, nd}, {nd, nd}})
	writeTestRaster(t, tb, r5, [][]float64{{9, 2}, {nd, nd}})
	writeTestRaster(t, tb, r10, [][]float64{{9, 9}, {3, nd}})

	refs, err := RasterRefsFromPaths([]string{r10, r2, r5})
	require.NoError(t, err)
	fout := filepath.Join(dir, "dtm.idw.tif")
	out, err := tb.GapFill(refs, fout, nil, grid.Nearest)
	require.NoError(t, err)
	assert.Equal(t, fout, out)

	r, err := tb.ReadRaster(out)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, r.Data[:3])
	assert.Contains(t, []float64{2, 3}, r.Data[3], "last gap takes a nearest neighbour value")
}

func TestGapFillErrors(t *testing.T) {
	dir := t.TempDir()
	tb := newTestToolbox(&fakeRunner{})
	_, err := tb.GapFill(nil, filepath.Join(dir, "x.tif"), nil, grid.Nearest)
	assert.ErrorIs(t, err, ErrNoRasters)

	a := filepath.Join(dir, "a_r1.tif")
	b := filepath.Join(dir, "a_r2.tif")
	writeTestRaster(t, tb, a, [][]float64{{1, nd}})
	writeTestRaster(t, tb, b, [][]float64{{1}, {2}})
	_, err = tb.GapFill([]RasterRef{{a, 1}, {b, 2}}, filepath.Join(dir, "x.tif"), nil, grid.Nearest)
	assert.ErrorIs(t, err, grid.ErrShapeMismatch)
}

// 覆盖站点范围(0,0)-(30,10)之外的2米分辨率栅格
func writeSiteRasters(t *testing.T, tb *Toolbox, dir string) []RasterRef {
	t.Helper()
	const rows, cols = 7, 18
	refs := make([]RasterRef, 2)
	for k, radius := range []float64{1, 2} {
		g := grid.New(rows, cols, nd)
		for i := range g.Data {
			// 半径1时隔一个像元缺一个
			if radius == 2 || i%2 == 0 {
				g.Data[i] = 100 + float64(i%cols)
			}
		}
		path := filepath.Join(dir, fmt.Sprintf("dtm_r%d.idw.tif", int(radius)))
		r := &Raster{Grid: g, GeoTransform: [6]float64{0, 2, 0, 12, 0, -2}}
		require.NoError(t, tb.WriteRaster(path, r))
		refs[k] = RasterRef{Path: path, Radius: radius}
	}
	return refs
}

func TestGapFillClipToSite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mysite.geojson")
	require.NoError(t, os.WriteFile(path, []byte(siteGeoJSON), 0o644))
	site, err := OpenSite(path)
	require.NoError(t, err)
	defer site.Close()
	tb := newTestToolbox(&fakeRunner{})
	refs := writeSiteRasters(t, tb, dir)

	fout := filepath.Join(dir, "dtm.idw.tif")
	out, err := tb.GapFill(refs, fout, site, grid.Nearest)
	require.NoError(t, err)
	assert.Equal(t, fout, out)
	assert.NoFileExists(t, filepath.Join(dir, "dtm_clip.idw.tif"))

	r, err := tb.ReadRaster(out)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Rows)
	assert.Equal(t, 15, r.Cols)
	xres, yres := r.Resolution()
	assert.InDelta(t, 2.0, xres, 1e-9)
	assert.InDelta(t, 2.0, yres, 1e-9)
	assert.InDelta(t, 0.0, r.GeoTransform[0], 1e-9)
	assert.InDelta(t, 10.0, r.GeoTransform[3], 1e-9)
	assert.False(t, r.IsNoData(2, 2), "inside the west polygon")
	assert.True(t, r.IsNoData(2, 7), "between the two polygons")
}

func TestGapFillClipToFeature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mysite.geojson")
	require.NoError(t, os.WriteFile(path, []byte(siteGeoJSON), 0o644))
	site, err := OpenSite(path)
	require.NoError(t, err)
	defer site.Close()
	tb := newTestToolbox(&fakeRunner{})
	refs := writeSiteRasters(t, tb, dir)

	east := site.Features[1]
	assert.Equal(t, []string{"-cutline", path, "-cwhere", "FID = 1"}, east.CutlineArgs())
	fout := filepath.Join(dir, "dtm_mysite-1.idw.tif")
	_, err = tb.GapFill(refs, fout, east, grid.Nearest)
	require.NoError(t, err)

	r, err := tb.ReadRaster(fout)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Rows)
	assert.Equal(t, 5, r.Cols)
	assert.InDelta(t, 20.0, r.GeoTransform[0], 1e-9)
	assert.InDelta(t, 10.0, r.GeoTransform[3], 1e-9)
	assert.Zero(t, r.CountNoData())
}
