package store

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// Container is a snapshot container.
type Container interface {
	// Write replaces the contents with the tree fn builds below the root.
	// Nothing is visible unless fn returns nil.
	Write(ctx context.Context, fn func(root Group) error) error

	// Read exposes the current contents. Groups must not be retained after
	// fn returns. Reading an empty container is NOT_FOUND.
	Read(ctx context.Context, fn func(root Group) error) error

	// SnapshotID returns the id of the last successful write.
	SnapshotID(ctx context.Context) (string, error)

	Close() error
}

// Group is one node of the container tree.
//
// Lookups of missing groups, attributes and datasets fail with NOT_FOUND.
// Names may not contain '/'.
type Group interface {
	// Path returns the absolute path of the group.
	Path() string

	CreateGroup(name string) (Group, error)
	OpenGroup(name string) (Group, error)
	HasGroup(name string) (bool, error)
	// Groups lists the names of the child groups in byte order.
	Groups() ([]string, error)

	SetIntAttr(name string, v ...int) error
	IntAttr(name string) ([]int, error)
	SetFloatAttr(name string, v ...float64) error
	FloatAttr(name string) ([]float64, error)
	SetStringAttr(name, v string) error
	StringAttr(name string) (string, error)

	HasDataset(name string) (bool, error)
	WriteInts(name string, v []int) error
	ReadInts(name string) ([]int, error)
	WriteFloats(name string, v []float64) error
	ReadFloats(name string) ([]float64, error)
}

// Kind tags the element type of an attribute or dataset.
type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
)

// Options configures a container.
type Options struct {
	// Codec compresses datasets. Zero value selects zstd.
	Codec Codec
}

func (o Options) codec() Codec {
	if o.Codec == "" {
		return CodecZstd
	}
	return o.Codec
}

// Scalar reads a single-valued int attribute.
func Scalar(g Group, name string) (int, error) {
	v, err := g.IntAttr(name)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, ir.Errorf(ir.ErrCodeSizeMismatch,
			"attribute %s of %s holds %d values, want 1", name, g.Path(), len(v))
	}
	return v[0], nil
}

// Child returns the path of name below parent.
func Child(parent, name string) string {
	return path.Join(parent, name)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("invalid group member name %q", name)
	}
	return nil
}

func notFound(what, name, parent string) error {
	return ir.Errorf(ir.ErrCodeNotFound, "%s %s not found in %s", what, name, parent).
		With("path", Child(parent, name))
}

func wrongKind(what, name, parent string, got, want Kind) error {
	return fmt.Errorf("%s %s in %s holds %s values, want %s", what, name, parent, got, want)
}
