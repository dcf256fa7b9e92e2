package dataset

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mathext/prng"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/feature"
)

// Synthetic 生成带保护属性的合成排序数据，主要用于测试与演示。
//
// 生成规则：
//   - 第 0 列为保护属性（0/1），以 ProtectedRate 的概率为 1
//   - 其余特征 f_k = mu + N(0,1)*sigma，mu、sigma 每个 Item 各自从 U[0,1) 采样
//   - 分数 = Σ 10*k*f_k，随后在每个 query 内做 min-max 归一化，并按分数降序排列
//
// 随机源为 Seed 初始化的 MT19937，均匀与正态采样共用同一个序列。
type Synthetic struct {
	Queries       int     // query 数量
	ItemsPerQuery int     // 每个 query 的 Item 数
	Features      int     // 特征维度（含第 0 列保护属性）
	ProtectedRate float64 // 保护组比例，默认 0.2
	Seed          uint64
}

func NewSynthetic(queries, itemsPerQuery, features int, seed uint64) *Synthetic {
	return &Synthetic{
		Queries:       queries,
		ItemsPerQuery: itemsPerQuery,
		Features:      features,
		ProtectedRate: 0.2,
		Seed:          seed,
	}
}

// Generate 生成数据；同一个 Seed 生成结果完全一致。
func (s *Synthetic) Generate() []*core.Group {
	src := prng.NewMT19937()
	src.Seed(s.Seed)
	r := rand.New(src)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	weights := make([]float64, s.Features)
	for k := range weights {
		weights[k] = float64(10 * k)
	}

	groups := make([]*core.Group, 0, s.Queries)
	for q := 0; q < s.Queries; q++ {
		items := make([]*core.Item, 0, s.ItemsPerQuery)
		for j := 0; j < s.ItemsPerQuery; j++ {
			protected := r.Float64() < s.ProtectedRate
			features := make([]float64, s.Features)
			if protected && s.Features > 0 {
				features[0] = 1
			}

			mu, sigma := r.Float64(), r.Float64()
			score := 0.0
			if s.Features > 0 {
				score = weights[0] * features[0]
			}
			for k := 1; k < s.Features; k++ {
				features[k] = mu + norm.Rand()*sigma
				score += weights[k] * features[k]
			}
			items = append(items, core.NewItem(int64(j), score, protected, features...))
		}

		normalize(items)
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].Judgement > items[b].Judgement
		})
		groups = append(groups, core.NewGroup(int64(q), items...))
	}
	return groups
}

func normalize(items []*core.Item) {
	if len(items) == 0 {
		return
	}
	scores := make([]float64, len(items))
	for i, it := range items {
		scores[i] = it.Judgement
	}
	n := feature.FitMinMax(scores)
	for _, it := range items {
		it.Judgement = n.NormalizeValue(it.Judgement)
	}
}
