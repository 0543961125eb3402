package l2d

const (
	FILE_EXT_LAS  = ".las"
	FILE_EXT_TIF  = ".tif"
	FILE_EXT_VRT  = ".vrt"
	FILE_EXT_JSON = ".json"

	LAS_GLOB = "*" + FILE_EXT_LAS

	// 分类LAS文件命名：<site>_<suffix>l2d_s<slope>c<cellsize>.las
	CLASS_SUFFIX_TEMPLATE = "%sl2d_s%sc%s" + FILE_EXT_LAS

	// DEM命名：<demtype>_r<radius>.<product>.tif
	DEM_NAME_TEMPLATE = "%s_r%s"
	HILLSHADE_SUFFIX  = "_hillshade"
	CLIP_SUFFIX       = "_clip"

	TMP_PIPELINE = "pipeline_%s" + FILE_EXT_JSON

	SHP_FIELD_CLASS = "class"

	DefaultNoData     = -9999.0
	DefaultResolution = 1.0
	DefaultOutliers   = 3.0
	DefaultSlope      = 1.0
	DefaultCellsize   = 3.0

	// 噪声及地面点的LAS分类码
	LAS_CLASS_GROUND     = 2
	LAS_CLASS_LOW_NOISE  = 7
	LAS_CLASS_HIGH_NOISE = 18

	OutlierMeanK = 8

	ENV_PDAL     = "L2D_PDAL"
	ENV_GDAL_BIN = "L2D_GDAL_BIN"

	PDAL_BIN          = "pdal"
	GDALBUILDVRT_BIN  = "gdalbuildvrt"
	GDALDEM_BIN       = "gdaldem"
	GTIFF_DRIVER_NAME = "GTiff"
)

// 可被识别为复合扩展名的产品扩展名
var productExts = []string{".den", ".min", ".max", ".mean", ".idw", ".count"}

// 各类DEM对应输出的产品
var demProducts = map[DemType][]Product{
	DemDensity: {ProductCount},
	DemDSM:     {ProductIDW},
	DemDTM:     {ProductIDW},
}

// 土地分类码对应的(slope, cellsize)
var classPresets = map[string]ClassParamsPair{
	"1": {1, 3},  // non-forest, flat
	"2": {1, 2},  // forest, flat
	"3": {5, 2},  // non-forest, complex
	"4": {10, 2}, // forest, complex
}
