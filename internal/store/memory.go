package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/t3ns/internal/ir"
)

// Memory is an in-process container for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	root *memGroup
	id   string
}

var _ Container = (*Memory)(nil)

// NewMemory returns an empty in-memory container.
func NewMemory() *Memory { return &Memory{} }

type memValue struct {
	kind   Kind
	ints   []int
	floats []float64
	str    string
}

type memGroup struct {
	path   string
	groups map[string]*memGroup
	attrs  map[string]memValue
	data   map[string]memValue
}

func newMemGroup(p string) *memGroup {
	return &memGroup{
		path:   p,
		groups: map[string]*memGroup{},
		attrs:  map[string]memValue{},
		data:   map[string]memValue{},
	}
}

// Write builds a new tree and swaps it in when fn succeeds.
func (m *Memory) Write(ctx context.Context, fn func(Group) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root := newMemGroup("/")
	if err := fn(root); err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	m.root, m.id = root, id.String()
	return nil
}

func (m *Memory) Read(ctx context.Context, fn func(Group) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.root == nil {
		return ir.Errorf(ir.ErrCodeNotFound, "container holds no snapshot")
	}
	return fn(m.root)
}

func (m *Memory) SnapshotID(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.root == nil {
		return "", ir.Errorf(ir.ErrCodeNotFound, "container holds no snapshot")
	}
	return m.id, nil
}

func (m *Memory) Close() error { return nil }

func (g *memGroup) Path() string { return g.path }

func (g *memGroup) CreateGroup(name string) (Group, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, ok := g.groups[name]; ok {
		return nil, fmt.Errorf("group %s already exists", Child(g.path, name))
	}
	c := newMemGroup(Child(g.path, name))
	g.groups[name] = c
	return c, nil
}

func (g *memGroup) OpenGroup(name string) (Group, error) {
	c, ok := g.groups[name]
	if !ok {
		return nil, notFound("group", name, g.path)
	}
	return c, nil
}

func (g *memGroup) HasGroup(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, ok := g.groups[name]
	return ok, nil
}

func (g *memGroup) Groups() ([]string, error) {
	names := make([]string, 0, len(g.groups))
	for name := range g.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (g *memGroup) SetIntAttr(name string, v ...int) error {
	if err := checkName(name); err != nil {
		return err
	}
	g.attrs[name] = memValue{kind: KindInt, ints: slices.Clone(v)}
	return nil
}

func (g *memGroup) SetFloatAttr(name string, v ...float64) error {
	if err := checkName(name); err != nil {
		return err
	}
	g.attrs[name] = memValue{kind: KindFloat, floats: slices.Clone(v)}
	return nil
}

func (g *memGroup) IntAttr(name string) ([]int, error) {
	v, err := lookup(g.attrs, "attribute", name, g.path, KindInt)
	return slices.Clone(v.ints), err
}

func (g *memGroup) FloatAttr(name string) ([]float64, error) {
	v, err := lookup(g.attrs, "attribute", name, g.path, KindFloat)
	return slices.Clone(v.floats), err
}

func (g *memGroup) SetStringAttr(name, v string) error {
	if err := checkName(name); err != nil {
		return err
	}
	g.attrs[name] = memValue{kind: KindString, str: v}
	return nil
}

func (g *memGroup) StringAttr(name string) (string, error) {
	v, err := lookup(g.attrs, "attribute", name, g.path, KindString)
	return v.str, err
}

func lookup(m map[string]memValue, what, name, parent string, want Kind) (memValue, error) {
	v, ok := m[name]
	if !ok {
		return memValue{}, notFound(what, name, parent)
	}
	if v.kind != want {
		return memValue{}, wrongKind(what, name, parent, v.kind, want)
	}
	return v, nil
}

func (g *memGroup) HasDataset(name string) (bool, error) {
	_, ok := g.data[name]
	return ok, nil
}

func (g *memGroup) writeDataset(name string, v memValue) error {
	if err := checkName(name); err != nil {
		return err
	}
	if _, ok := g.data[name]; ok {
		return fmt.Errorf("dataset %s already exists", Child(g.path, name))
	}
	g.data[name] = v
	return nil
}

func (g *memGroup) WriteInts(name string, v []int) error {
	return g.writeDataset(name, memValue{kind: KindInt, ints: append([]int{}, v...)})
}

func (g *memGroup) WriteFloats(name string, v []float64) error {
	return g.writeDataset(name, memValue{kind: KindFloat, floats: append([]float64{}, v...)})
}

func (g *memGroup) ReadInts(name string) ([]int, error) {
	v, err := lookup(g.data, "dataset", name, g.path, KindInt)
	if err != nil {
		return nil, err
	}
	return append([]int{}, v.ints...), nil
}

func (g *memGroup) ReadFloats(name string) ([]float64, error) {
	v, err := lookup(g.data, "dataset", name, g.path, KindFloat)
	if err != nil {
		return nil, err
	}
	return append([]float64{}, v.floats...), nil
}
