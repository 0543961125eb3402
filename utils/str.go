package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// 解析以逗号或空白分隔的浮点数列表
func ParseFloats(s string) (rets []float64, err error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	rets = make([]float64, 0, len(fields))
	for _, f := range fields {
		v, e := strconv.ParseFloat(f, 64)
		if e != nil {
			err = fmt.Errorf("invalid number %q: %w", f, e)
			return
		}
		rets = append(rets, v)
	}
	return
}

func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func FloatsToStr(vs []float64, sep string) string {
	var ret strings.Builder
	for i, v := range vs {
		if i > 0 {
			ret.WriteString(sep)
		}
		ret.WriteString(FormatFloat(v))
	}
	return ret.String()
}
