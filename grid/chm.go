package grid

// 计算冠层高度 dsm - dtm，假定两者网格对齐
//
// 输出NoData取dtm的NoData；两者行列数不同时均从左上角裁剪到较小者。
// dtm或dsm为NoData的像元输出NoData。
func Difference(dtm, dsm *Grid) *Grid {
	rows := min(dtm.Rows, dsm.Rows)
	cols := min(dtm.Cols, dsm.Cols)
	if !dtm.SameShape(dsm) {
		dtm = dtm.Crop(rows, cols)
		dsm = dsm.Crop(rows, cols)
	}
	out := &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols), NoData: dtm.NoData}
	for i := range out.Data {
		out.Data[i] = dsm.Data[i] - dtm.Data[i]
	}
	// 无地面点
	for i, v := range dtm.Data {
		if dtm.isNoDataValue(v) {
			out.Data[i] = out.NoData
		}
	}
	// 无地表点
	for i, v := range dsm.Data {
		if dsm.isNoDataValue(v) {
			out.Data[i] = out.NoData
		}
	}
	return out
}
