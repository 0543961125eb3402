package l2d

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PCLC7Z2/lidar2dems/log"
	"github.com/PCLC7Z2/lidar2dems/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const (
	SHP_DRIVER_NAME     = "ESRI Shapefile"
	GEOJSON_DRIVER_NAME = "GeoJSON"
	GPKG_DRIVER_NAME    = "GPKG"
)

// 用于筛选LAS文件及命名输出的空间范围
type Boundary interface {
	Basename() string
	Intersects(b Bounds) bool
}

// 栅格剪切使用的矢量边界，返回gdalwarp的cutline参数
type Cutline interface {
	CutlineArgs() []string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

// 站点矢量：整体范围（所有要素的并集）及各要素
type Site struct {
	Path     string
	Features []*Feature
	geom     gdal.Geometry
	bounds   Bounds
	logTag   string
}

// 站点矢量中的单个要素
type Feature struct {
	FID    int64
	Attrs  map[string]string
	Bounds Bounds
	site   *Site
	geom   gdal.Geometry
}

func vectorDriver(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".geojson":
		return GEOJSON_DRIVER_NAME
	case ".gpkg":
		return GPKG_DRIVER_NAME
	default:
		return SHP_DRIVER_NAME
	}
}

// 读取站点矢量文件（仅第一个图层）
func OpenSite(path string) (site *Site, err error) {
	logTag := "Site:"
	driver := gdal.OGRDriverByName(vectorDriver(path))
	ds, ok := driver.Open(path, 0)
	if !ok {
		log.Error(logTag+"open vector failed", zap.String("path", path))
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, path)
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	def := layer.Definition()
	nFields := def.FieldCount()
	names := make([]string, nFields)
	for i := 0; i < nFields; i++ {
		fd := def.FieldDefinition(i)
		names[i] = fd.Name()
	}
	site = &Site{
		Path:   path,
		geom:   gdal.Create(gdal.GT_Polygon),
		logTag: logTag,
	}
	var (
		feature *gdal.Feature
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		geo := feature.Geometry()
		if geo.IsEmpty() {
			log.Warn(logTag+"skip feature with empty geometry", zap.Int64("fid", feature.FID()))
			continue
		}
		f := &Feature{
			FID:    feature.FID(),
			Attrs:  make(map[string]string, nFields),
			Bounds: envelopeBounds(geo.Envelope()),
			site:   site,
			geom:   geo.Clone(),
		}
		for i, name := range names {
			if feature.IsFieldSet(i) {
				f.Attrs[name] = feature.FieldAsString(i)
			}
		}
		site.Features = append(site.Features, f)
		gc = append(gc, site.geom)
		site.geom = site.geom.Union(geo)
	}
	if len(site.Features) == 0 {
		site.Close()
		site = nil
		err = fmt.Errorf("%w: %s", ErrEmptySite, path)
		return
	}
	site.bounds = envelopeBounds(site.geom.Envelope())
	log.Info(logTag+"opened site", zap.String("path", path), zap.Int("features", len(site.Features)), zap.Float64s("bounds", site.bounds[:]))
	return
}

func envelopeBounds(env gdal.Envelope) Bounds {
	return Bounds{env.MinX(), env.MinY(), env.MaxX(), env.MaxY()}
}

func (s *Site) Close() {
	for _, f := range s.Features {
		f.geom.Destroy()
	}
	s.Features = nil
	s.geom.Destroy()
}

// 文件名（不含扩展名）
func (s *Site) Basename() string {
	return utils.GetFilenameWithoutExt(s.Path)
}

func (s *Site) Bounds() Bounds {
	return s.bounds
}

func (s *Site) Intersects(b Bounds) bool {
	return intersectsBounds(s.geom, b)
}

func (s *Site) Wkt() (string, error) {
	return s.geom.ToWKT()
}

func (s *Site) CutlineArgs() []string {
	return []string{"-cutline", s.Path}
}

// 仅以该要素剪切
func (f *Feature) CutlineArgs() []string {
	return []string{"-cutline", f.site.Path, "-cwhere", fmt.Sprintf("FID = %d", f.FID)}
}

func (f *Feature) Basename() string {
	return fmt.Sprintf("%s-%d", f.site.Basename(), f.FID)
}

func (f *Feature) Attr(name string) (v string, ok bool) {
	if f == nil {
		return
	}
	v, ok = f.Attrs[name]
	return
}

func (f *Feature) Intersects(b Bounds) bool {
	return intersectsBounds(f.geom, b)
}

func intersectsBounds(geo gdal.Geometry, b Bounds) bool {
	rect, err := gdal.CreateFromWKT(BoundsToWkt(b), geo.SpatialReference())
	if err != nil {
		log.Error("parse bounds wkt failed", zap.Float64s("bounds", b[:]), zap.Error(err))
		return false
	}
	defer rect.Destroy()
	return geo.Intersects(rect)
}
