package l2d

import (
	"errors"
	"fmt"

	"github.com/PCLC7Z2/lidar2dems/log"

	"go.uber.org/zap"
)

var (
	errNoFeature    = errors.New("no feature")
	errNoClassAttr  = errors.New("feature has no class attribute")
	errUnknownClass = errors.New("unknown class code")
)

// 提供要素属性
type AttrGetter interface {
	Attr(name string) (string, bool)
}

// 根据土地分类获取分类参数(slope, cellsize)
//
// slope与cellsize均给定时直接使用；否则按要素class属性查预设值。
// 查找因任何原因失败时不报错，回退到默认值(1, 3)，已给定的单个参数保留。
func ClassParams(feature AttrGetter, slope, cellsize *float64) (ret ClassLookup) {
	if slope != nil && cellsize != nil {
		ret.Slope, ret.Cellsize = *slope, *cellsize
		ret.Source = ParamsOverride
		return
	}
	pair, err := lookupClass(feature)
	if err == nil {
		ret.ClassParamsPair = pair
		ret.Source = ParamsPreset
		return
	}
	ret.Slope, ret.Cellsize = DefaultSlope, DefaultCellsize
	if slope != nil {
		ret.Slope = *slope
	}
	if cellsize != nil {
		ret.Cellsize = *cellsize
	}
	ret.Source = ParamsDefault
	ret.Reason = err
	log.Debug("class params fall back to default", zap.Float64("slope", ret.Slope), zap.Float64("cellsize", ret.Cellsize), zap.Error(err))
	return
}

func lookupClass(feature AttrGetter) (pair ClassParamsPair, err error) {
	if feature == nil {
		err = errNoFeature
		return
	}
	code, ok := feature.Attr(SHP_FIELD_CLASS)
	if !ok {
		err = errNoClassAttr
		return
	}
	if pair, ok = classPresets[code]; !ok {
		err = fmt.Errorf("%w: %q", errUnknownClass, code)
	}
	return
}
