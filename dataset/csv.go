package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/deltr/core"
	"github.com/rushteam/deltr/pkg/dsl"
)

// CSVLoader 从 CSV 读取 Group 列表。
//
// 每行格式：query_id,item_id,judgement,f0,f1,...,fn
// 同一个 query_id 的行归入同一个 Group，Group 顺序为 query 首次出现的顺序。
type CSVLoader struct {
	// Header 为 true 时跳过首行
	Header bool
	// ProtectedIndex 保护属性所在的特征列，值非 0 视为保护组；< 0 表示不从特征列推断
	ProtectedIndex int
	// ProtectedExpr 设置后优先使用 CEL 表达式判断保护组，例如 `item.features[0] == 1.0`
	ProtectedExpr string
	// Comma 字段分隔符，默认 ','
	Comma rune
}

// CSVLoaderOption 用于配置 CSVLoader
type CSVLoaderOption func(*CSVLoader)

// WithHeader 设置是否跳过首行
func WithHeader(header bool) CSVLoaderOption {
	return func(l *CSVLoader) { l.Header = header }
}

// WithProtectedIndex 设置保护属性所在的特征列
func WithProtectedIndex(idx int) CSVLoaderOption {
	return func(l *CSVLoader) { l.ProtectedIndex = idx }
}

// WithProtectedExpr 使用 CEL 表达式判断保护组
func WithProtectedExpr(expr string) CSVLoaderOption {
	return func(l *CSVLoader) { l.ProtectedExpr = expr }
}

// WithComma 设置字段分隔符
func WithComma(c rune) CSVLoaderOption {
	return func(l *CSVLoader) { l.Comma = c }
}

func NewCSVLoader(opts ...CSVLoaderOption) *CSVLoader {
	l := &CSVLoader{
		ProtectedIndex: core.DefaultProtectedIndex,
		Comma:          ',',
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile 读取 CSV 文件。
func (l *CSVLoader) LoadFile(path string) ([]*core.Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load 从 reader 读取 CSV。
func (l *CSVLoader) Load(r io.Reader) ([]*core.Group, error) {
	var prg *dsl.Program
	if l.ProtectedExpr != "" {
		p, err := dsl.Compile(l.ProtectedExpr)
		if err != nil {
			return nil, fmt.Errorf("protected expr %q: %w", l.ProtectedExpr, err)
		}
		prg = p
	}

	cr := csv.NewReader(r)
	cr.Comma = l.Comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var (
		groups []*core.Group
		index  = make(map[int64]*core.Group)
		line   = 0
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if line == 1 && l.Header {
			continue
		}
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}

		qid, it, err := l.parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := l.markProtected(it, prg); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		g, ok := index[qid]
		if !ok {
			g = core.NewGroup(qid)
			index[qid] = g
			groups = append(groups, g)
		}
		g.Items = append(g.Items, it)
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("load csv: %w", core.ErrEmptyInput)
	}
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("load csv: %w", err)
		}
	}
	return groups, nil
}

func (l *CSVLoader) parseRecord(record []string) (int64, *core.Item, error) {
	if len(record) < 4 {
		return 0, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("expected at least 4 columns (query_id,item_id,judgement,features...), got %d", len(record)))
	}
	qid, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("query_id: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("item_id: %w", err)
	}
	judgement, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return 0, nil, fmt.Errorf("judgement: %w", err)
	}
	features := make([]float64, 0, len(record)-3)
	for i, raw := range record[3:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, nil, fmt.Errorf("feature %d: %w", i, err)
		}
		features = append(features, v)
	}
	return qid, core.NewItem(id, judgement, false, features...), nil
}

func (l *CSVLoader) markProtected(it *core.Item, prg *dsl.Program) error {
	if prg != nil {
		ok, err := prg.Eval(it)
		if err != nil {
			return err
		}
		it.Protected = ok
		return nil
	}
	if l.ProtectedIndex >= 0 {
		if l.ProtectedIndex >= len(it.Features) {
			return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("protected index %d out of range for %d features", l.ProtectedIndex, len(it.Features)))
		}
		it.Protected = it.Features[l.ProtectedIndex] != 0
	}
	return nil
}

// WriteCSV 按 CSVLoader 读取的格式写出 groups（不写表头）。
func WriteCSV(w io.Writer, groups []*core.Group) error {
	cw := csv.NewWriter(w)
	for _, g := range groups {
		for _, it := range g.Items {
			record := make([]string, 0, 3+len(it.Features))
			record = append(record,
				strconv.FormatInt(g.QueryID, 10),
				strconv.FormatInt(it.ID, 10),
				strconv.FormatFloat(it.Judgement, 'g', -1, 64),
			)
			for _, f := range it.Features {
				record = append(record, strconv.FormatFloat(f, 'g', -1, 64))
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
