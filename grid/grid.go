// Package grid 单波段栅格的内存表示及其运算（CHM差值、多半径补缺、插值）
package grid

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrShapeMismatch        = errors.New("grid shape mismatch")
	ErrEmpty                = errors.New("no grids provided")
	ErrUnknownInterpolation = errors.New("unknown interpolation method")
	ErrWrongDataSize        = errors.New("grid data size mismatch")
)

// 行优先存储的单波段栅格，NoData为无效值
type Grid struct {
	Rows   int
	Cols   int
	Data   []float64
	NoData float64
}

// 创建全部为NoData的栅格
func New(rows, cols int, nodata float64) *Grid {
	g := &Grid{
		Rows:   rows,
		Cols:   cols,
		Data:   make([]float64, rows*cols),
		NoData: nodata,
	}
	for i := range g.Data {
		g.Data[i] = nodata
	}
	return g
}

func FromData(rows, cols int, data []float64, nodata float64) (*Grid, error) {
	if len(data) != rows*cols {
		return nil, ErrWrongDataSize
	}
	return &Grid{Rows: rows, Cols: cols, Data: data, NoData: nodata}, nil
}

// 由二维数组构造栅格，各行长度须一致
func FromRows(rows [][]float64, nodata float64) (*Grid, error) {
	if len(rows) == 0 {
		return &Grid{NoData: nodata}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			return nil, ErrShapeMismatch
		}
		data = append(data, r...)
	}
	return &Grid{Rows: len(rows), Cols: cols, Data: data, NoData: nodata}, nil
}

func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}

func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Cols+col] = v
}

func (g *Grid) IsNoData(row, col int) bool {
	return g.isNoDataValue(g.At(row, col))
}

func (g *Grid) isNoDataValue(v float64) bool {
	if math.IsNaN(g.NoData) {
		return math.IsNaN(v)
	}
	return v == g.NoData
}

func (g *Grid) SameShape(o *Grid) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols
}

func (g *Grid) Clone() *Grid {
	c := *g
	c.Data = append([]float64(nil), g.Data...)
	return &c
}

// 从左上角裁剪出rows*cols的子栅格，超出范围的维度保持不变
func (g *Grid) Crop(rows, cols int) *Grid {
	if rows >= g.Rows && cols >= g.Cols {
		return g.Clone()
	}
	rows = min(rows, g.Rows)
	cols = min(cols, g.Cols)
	c := &Grid{Rows: rows, Cols: cols, Data: make([]float64, 0, rows*cols), NoData: g.NoData}
	for r := 0; r < rows; r++ {
		c.Data = append(c.Data, g.Data[r*g.Cols:r*g.Cols+cols]...)
	}
	return c
}

// 统计NoData像元个数
func (g *Grid) CountNoData() (n int) {
	for _, v := range g.Data {
		if g.isNoDataValue(v) {
			n++
		}
	}
	return
}

// 有效像元的统计值
type Summary struct {
	Valid  int
	NoData int
	Min    float64
	Max    float64
	Mean   float64
}

// 全部有效值，按行优先顺序
func (g *Grid) ValidValues() []float64 {
	valid := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if !g.isNoDataValue(v) {
			valid = append(valid, v)
		}
	}
	return valid
}

func (g *Grid) Summarize() (s Summary) {
	valid := g.ValidValues()
	s.Valid = len(valid)
	s.NoData = len(g.Data) - s.Valid
	if s.Valid == 0 {
		return
	}
	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	s.Mean = floats.Sum(valid) / float64(s.Valid)
	return
}
