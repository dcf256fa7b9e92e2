package trainer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// topp 计算 Plackett-Luce top-1 概率：exp(v_i) / Σ exp(v_j)。
func topp(v []float64) []float64 {
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out
	}
	lse := floats.LogSumExp(v)
	for i, x := range v {
		out[i] = math.Exp(x - lse)
	}
	return out
}

// toppProt 与 topp 使用相同的分母（query 内全部 Item），分子只取 group 内的 Item。
func toppProt(group, all []float64) []float64 {
	out := make([]float64, len(group))
	if len(group) == 0 || len(all) == 0 {
		return out
	}
	lse := floats.LogSumExp(all)
	for i, x := range group {
		out[i] = math.Exp(x - lse)
	}
	return out
}

// normalizedExposure 计算 group 的归一化曝光：Σ toppProt / ln2 / |group|。
// 空 group 的曝光约定为 0。
func normalizedExposure(group, all []float64) float64 {
	if len(group) == 0 {
		return 0
	}
	return floats.Sum(toppProt(group, all)) / math.Ln2 / float64(len(group))
}

// exposureGap 只惩罚保护组处于劣势的情况：max(0, 非保护组曝光 - 保护组曝光)。
func exposureGap(pred *vectorStats) float64 {
	diff := normalizedExposure(pred.others, pred.all) - normalizedExposure(pred.protected, pred.all)
	return math.Max(0, diff)
}

// normalizedToppProtDerivative 返回 group 内每个 Item 对归一化曝光梯度的贡献，
// 第 i 行为 toppProt_i * (x_i - x̄) / ln2 / |group|，其中 x̄ = Σ_j topp_j x_j 取自整个 query。
// 各行求和即为 normalizedExposure(group) 对权重的导数。
func normalizedToppProtDerivative(groupX *mat.Dense, group, all, xbar []float64) *mat.Dense {
	if groupX == nil || len(group) == 0 {
		return nil
	}
	n, c := groupX.Dims()
	tp := toppProt(group, all)
	norm := math.Ln2 * float64(n)
	out := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		floats.SubTo(row, groupX.RawRowView(i), xbar)
		floats.Scale(tp[i]/norm, row)
	}
	return out
}

// queryResult 是单个 query 的损失汇总。
type queryResult struct {
	standard float64 // 排序损失
	exposure float64 // gamma * gap^2，关闭曝光约束时为 0
	gap      float64
}

// engine 计算损失与梯度。训练侧数据（标注、特征）在构造后不再变化。
type engine struct {
	batchLabels   []float64
	batchFeatures *mat.Dense
	part          *partition
	cache         *statsCache
	gamma         float64
	noExposure    bool
	logN          float64
}

// evalQuery 计算 query q 的损失与梯度。
// 只写入 cost 与 grad 中属于 q 的行，不同 query 可以并发调用。
func (e *engine) evalQuery(q int64, preds []float64, cost []float64, grad *mat.Dense) queryResult {
	rows := e.part.rows[q]
	judg := e.cache.vector(q, sourceJudgements, e.batchLabels)
	feat := e.cache.matrix(q, sourceFeatures, e.batchFeatures)
	pred := e.cache.vector(q, sourcePredictions, preds)

	ty := judg.Topp()
	ps := pred.Topp()
	lse := floats.LogSumExp(pred.all)

	var res queryResult
	for i, r := range rows {
		// -topp(y)_i * log(topp(s)_i) / log(N)
		c := -ty[i] * (pred.all[i] - lse) / e.logN
		cost[r] = c
		res.standard += c
		floats.AddScaled(grad.RawRowView(r), (ps[i]-ty[i])/e.logN, feat.all.RawRowView(i))
	}

	res.gap = exposureGap(pred)
	if e.noExposure {
		return res
	}

	res.exposure = e.gamma * res.gap * res.gap
	share := res.exposure / float64(len(rows))
	for _, r := range rows {
		cost[r] += share
	}
	if res.gap == 0 {
		return res
	}

	_, dim := feat.all.Dims()
	var xbar mat.VecDense
	xbar.MulVec(feat.all.T(), mat.NewVecDense(len(ps), ps))
	xb := make([]float64, dim)
	for j := range xb {
		xb[j] = xbar.AtVec(j)
	}

	scale := 2 * e.gamma * res.gap
	e.scatter(grad, rows, e.part.others[q],
		normalizedToppProtDerivative(feat.others, pred.others, pred.all, xb), scale)
	e.scatter(grad, rows, e.part.protected[q],
		normalizedToppProtDerivative(feat.protected, pred.protected, pred.all, xb), -scale)
	return res
}

// scatter 把 group 内各 Item 的导数按 scale 累加到 grad 对应的批数据行。
func (e *engine) scatter(grad *mat.Dense, rows, positions []int, deriv *mat.Dense, scale float64) {
	if deriv == nil {
		return
	}
	for i, p := range positions {
		floats.AddScaled(grad.RawRowView(rows[p]), scale, deriv.RawRowView(i))
	}
}
