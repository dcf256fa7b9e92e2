package trainer

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/deltr/dataset"
)

// partition 记录每个 query 在批数据中的行号，以及 query 内保护组/非保护组的位置。
// 一次 Train 只构建一次，所有缓存条目都基于同一个 partition。
type partition struct {
	queries   []int64
	rows      map[int64][]int // query -> batch 行号
	protected map[int64][]int // query -> query 内的位置
	others    map[int64][]int // query -> query 内的位置
	total     int
}

func newPartition(b *dataset.Batch) *partition {
	p := &partition{
		queries:   b.Queries(),
		rows:      make(map[int64][]int),
		protected: make(map[int64][]int),
		others:    make(map[int64][]int),
		total:     b.Len(),
	}
	for i, q := range b.QueryIDs {
		pos := len(p.rows[q])
		p.rows[q] = append(p.rows[q], i)
		if b.Protected[i] == 1 {
			p.protected[q] = append(p.protected[q], pos)
		} else {
			p.others[q] = append(p.others[q], pos)
		}
	}
	return p
}

// source 标识缓存条目来自哪一个数组。
type source uint8

const (
	sourceJudgements source = iota
	sourceFeatures
	sourcePredictions
)

func (s source) String() string {
	switch s {
	case sourceJudgements:
		return "judgements"
	case sourceFeatures:
		return "features"
	case sourcePredictions:
		return "predictions"
	default:
		return "unknown"
	}
}

type cacheKey struct {
	query int64
	src   source
}

// vectorStats 是某个 query 在一个向量（标注或预测分数）上的切分结果。
type vectorStats struct {
	all       []float64
	protected []float64
	others    []float64

	toppOnce sync.Once
	topp     []float64
}

// Topp 返回 all 的 top-1 概率，首次调用时计算。
func (v *vectorStats) Topp() []float64 {
	v.toppOnce.Do(func() {
		v.topp = topp(v.all)
	})
	return v.topp
}

// matrixStats 是某个 query 在特征矩阵上的切分结果。
type matrixStats struct {
	all       *mat.Dense
	protected *mat.Dense
	others    *mat.Dense
}

// statsCache 按 (query, source) 缓存切分结果。
// 标注与特征在整个训练过程中不变，只计算一次；预测分数每轮迭代调用 invalidate 后重新计算。
// 多个 query 并发访问，读写都经过 mu。
type statsCache struct {
	part *partition

	mu       sync.RWMutex
	vectors  map[cacheKey]*vectorStats
	matrices map[cacheKey]*matrixStats
}

func newStatsCache(part *partition) *statsCache {
	return &statsCache{
		part:     part,
		vectors:  make(map[cacheKey]*vectorStats),
		matrices: make(map[cacheKey]*matrixStats),
	}
}

// vector 返回 query q 在 data 上的切分结果，data 必须是 src 对应的数组。
func (c *statsCache) vector(q int64, src source, data []float64) *vectorStats {
	key := cacheKey{query: q, src: src}
	c.mu.RLock()
	v, ok := c.vectors[key]
	c.mu.RUnlock()
	if ok {
		return v
	}

	rows := c.part.rows[q]
	all := make([]float64, len(rows))
	for i, r := range rows {
		all[i] = data[r]
	}
	v = &vectorStats{
		all:       all,
		protected: pick(all, c.part.protected[q]),
		others:    pick(all, c.part.others[q]),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.vectors[key]; ok {
		return existing
	}
	c.vectors[key] = v
	return v
}

// matrix 返回 query q 在特征矩阵 x 上的切分结果。
func (c *statsCache) matrix(q int64, src source, x *mat.Dense) *matrixStats {
	key := cacheKey{query: q, src: src}
	c.mu.RLock()
	m, ok := c.matrices[key]
	c.mu.RUnlock()
	if ok {
		return m
	}

	m = &matrixStats{
		all:       pickRows(x, c.part.rows[q]),
		protected: pickRows(x, absolute(c.part.rows[q], c.part.protected[q])),
		others:    pickRows(x, absolute(c.part.rows[q], c.part.others[q])),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.matrices[key]; ok {
		return existing
	}
	c.matrices[key] = m
	return m
}

// invalidate 删除 src 对应的全部条目。
func (c *statsCache) invalidate(src source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.vectors {
		if k.src == src {
			delete(c.vectors, k)
		}
	}
	for k := range c.matrices {
		if k.src == src {
			delete(c.matrices, k)
		}
	}
}

// size 返回缓存条目数。
func (c *statsCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors) + len(c.matrices)
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func absolute(rows, positions []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = rows[p]
	}
	return out
}

// pickRows 复制 x 的指定行；没有行时返回 nil（gonum 不允许 0 行矩阵）。
func pickRows(x *mat.Dense, rows []int) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	_, c := x.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, x.RawRowView(r))
	}
	return out
}
