package l2d

import "strconv"

type DemType string

const (
	DemDensity DemType = "density"
	DemDSM     DemType = "dsm"
	DemDTM     DemType = "dtm"
)

// 栅格产品类型，即复合扩展名中的第一段
type Product string

const (
	ProductDen   Product = "den"
	ProductMin   Product = "min"
	ProductMax   Product = "max"
	ProductMean  Product = "mean"
	ProductIDW   Product = "idw"
	ProductCount Product = "count"
)

type ClassParamsPair struct {
	Slope    float64
	Cellsize float64
}

type ParamsSource int

const (
	ParamsDefault  ParamsSource = iota // 查找失败，使用默认值
	ParamsPreset                       // 按土地分类码查得
	ParamsOverride                     // 显式指定
)

func (s ParamsSource) String() string {
	switch s {
	case ParamsPreset:
		return "preset"
	case ParamsOverride:
		return "override"
	default:
		return "default"
	}
}

// 分类参数查找结果，Reason为回退到默认值的原因
type ClassLookup struct {
	ClassParamsPair
	Source ParamsSource
	Reason error
}

// 范围 [xmin, ymin, xmax, ymax]
type Bounds [4]float64

func (b Bounds) Intersects(o Bounds) bool {
	return b[0] <= o[2] && o[0] <= b[2] && b[1] <= o[3] && o[1] <= b[3]
}

func (b Bounds) Args() []string {
	return []string{formatNum(b[0]), formatNum(b[1]), formatNum(b[2]), formatNum(b[3])}
}

// 栅格文件及其插值半径，补缺时按半径升序使用
type RasterRef struct {
	Path   string
	Radius float64
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
