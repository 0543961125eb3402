package grid

import (
	"math"
	"sort"
	"strings"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/spatial/kdtree"
)

type Method string

const (
	Nearest Method = "nearest"
	Linear  Method = "linear"
	IDW     Method = "idw"

	// 反距离加权使用的近邻个数及幂次
	IDWNeighbors = 8
	IDWPower     = 2.0
)

func ParseMethod(s string) (m Method, err error) {
	switch m = Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		m = Nearest
	case Nearest, Linear, IDW:
	default:
		err = ErrUnknownInterpolation
	}
	return
}

// 以全部有效像元为已知点、NoData像元为待求点进行散点插值，返回新栅格
// 无有效像元或无NoData像元时原样返回副本
// linear在有效像元的凸包外不插值，保持NoData
func Interpolate(g *Grid, method Method) (out *Grid, err error) {
	if method, err = ParseMethod(string(method)); err != nil {
		return
	}
	out = g.Clone()
	if method == Linear {
		linearFill(g, out)
		return
	}
	var (
		known = make(kdtree.Points, 0, len(g.Data))
		bad   []int
	)
	for i, v := range g.Data {
		if g.isNoDataValue(v) {
			bad = append(bad, i)
		} else {
			known = append(known, kdtree.Point{float64(i / g.Cols), float64(i % g.Cols)})
		}
	}
	if len(known) == 0 || len(bad) == 0 {
		return
	}
	tree := kdtree.New(known, false)
	for _, i := range bad {
		q := kdtree.Point{float64(i / g.Cols), float64(i % g.Cols)}
		switch method {
		case Nearest:
			out.Data[i] = nearestValue(tree, g, q)
		case IDW:
			out.Data[i] = idwValue(tree, g, q)
		}
	}
	return
}

func (g *Grid) valueAt(p kdtree.Point) float64 {
	return g.At(int(p[0]), int(p[1]))
}

func nearestValue(tree *kdtree.Tree, g *Grid, q kdtree.Point) float64 {
	c, _ := tree.Nearest(q)
	return g.valueAt(c.(kdtree.Point))
}

func idwValue(tree *kdtree.Tree, g *Grid, q kdtree.Point) float64 {
	keeper := kdtree.NewNKeeper(IDWNeighbors)
	tree.NearestSet(keeper, q)
	var sum, wsum float64
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		// kdtree.Point的距离为欧氏距离平方
		w := 1 / math.Pow(math.Sqrt(cd.Dist), IDWPower)
		sum += w * g.valueAt(cd.Comparable.(kdtree.Point))
		wsum += w
	}
	if wsum == 0 {
		return g.NoData
	}
	return sum / wsum
}

// 有效像元的Delaunay三角网上按重心坐标线性插值
func linearFill(g, out *Grid) {
	var (
		pts  []delaunay.Point
		vals []float64
	)
	for i, v := range g.Data {
		if !g.isNoDataValue(v) {
			pts = append(pts, delaunay.Point{X: float64(i % g.Cols), Y: float64(i / g.Cols)})
			vals = append(vals, v)
		}
	}
	if len(pts) == 0 || len(pts) == len(g.Data) {
		return
	}
	if len(pts) < 3 {
		lineFill(g, out, pts, vals)
		return
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil || len(tri.Triangles) == 0 {
		// 有效像元共线，凸包退化为线段
		lineFill(g, out, pts, vals)
		return
	}
	const eps = 1e-9
	for k := 0; k+2 < len(tri.Triangles); k += 3 {
		ia, ib, ic := tri.Triangles[k], tri.Triangles[k+1], tri.Triangles[k+2]
		a, b, c := pts[ia], pts[ib], pts[ic]
		det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		if det == 0 {
			continue
		}
		x0, x1 := int(math.Ceil(min(a.X, b.X, c.X))), int(math.Floor(max(a.X, b.X, c.X)))
		y0, y1 := int(math.Ceil(min(a.Y, b.Y, c.Y))), int(math.Floor(max(a.Y, b.Y, c.Y)))
		for row := y0; row <= y1; row++ {
			for col := x0; col <= x1; col++ {
				i := row*g.Cols + col
				if !g.isNoDataValue(g.Data[i]) {
					continue
				}
				x, y := float64(col), float64(row)
				la := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / det
				lb := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / det
				lc := 1 - la - lb
				if la < -eps || lb < -eps || lc < -eps {
					continue
				}
				out.Data[i] = la*vals[ia] + lb*vals[ib] + lc*vals[ic]
			}
		}
	}
}

// 共线的有效像元：仅对线段上的NoData像元按相邻两点线性插值
func lineFill(g, out *Grid, pts []delaunay.Point, vals []float64) {
	if len(pts) < 2 {
		return
	}
	p0 := pts[0]
	var dx, dy float64
	for _, p := range pts[1:] {
		if ddx, ddy := p.X-p0.X, p.Y-p0.Y; ddx*ddx+ddy*ddy > dx*dx+dy*dy {
			dx, dy = ddx, ddy
		}
	}
	type station struct {
		t, v float64
	}
	line := make([]station, len(pts))
	for i, p := range pts {
		line[i] = station{(p.X-p0.X)*dx + (p.Y-p0.Y)*dy, vals[i]}
	}
	sort.Slice(line, func(i, j int) bool { return line[i].t < line[j].t })
	for i, v := range g.Data {
		if !g.isNoDataValue(v) {
			continue
		}
		x, y := float64(i%g.Cols)-p0.X, float64(i/g.Cols)-p0.Y
		if x*dy-y*dx != 0 {
			continue
		}
		t := x*dx + y*dy
		j := sort.Search(len(line), func(j int) bool { return line[j].t >= t })
		if j == 0 || j == len(line) {
			continue
		}
		lo, hi := line[j-1], line[j]
		out.Data[i] = lo.v + (hi.v-lo.v)*(t-lo.t)/(hi.t-lo.t)
	}
}
