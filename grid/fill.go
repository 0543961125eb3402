package grid

// 按顺序合并多张同尺寸栅格：以第一张为底，后续栅格只填补仍为NoData的像元
func Merge(grids []*Grid) (out *Grid, err error) {
	if len(grids) == 0 {
		err = ErrEmpty
		return
	}
	out = grids[0].Clone()
	for _, g := range grids[1:] {
		if !g.SameShape(out) {
			err = ErrShapeMismatch
			return
		}
		for i, v := range out.Data {
			if out.isNoDataValue(v) && !g.isNoDataValue(g.Data[i]) {
				out.Data[i] = g.Data[i]
			}
		}
	}
	return
}

// 合并后再对剩余NoData像元插值
func Fill(grids []*Grid, method Method) (out *Grid, err error) {
	if out, err = Merge(grids); err != nil {
		return
	}
	return Interpolate(out, method)
}
