package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

func writerTable() *EntityTable {
	return Define[Writer]("writers").
		TextKey("id", func(w *Writer) *string { return &w.ID }, types.AssignUUID).
		Text("name", func(w *Writer) *string { return &w.Name }).
		MustBuild()
}

func tagTable() *EntityTable {
	return Define[Tag]("tags").
		TextKey("label", func(g *Tag) *string { return &g.Label }, types.AssignCustom).
		MustBuild()
}

func TestRegistry(t *testing.T) {
	post := postTable(t)
	reg, err := NewRegistry(post, writerTable(), tagTable())
	require.NoError(t, err)

	got, err := reg.Lookup(&BlogPost{})
	require.NoError(t, err)
	assert.Same(t, post, got)

	_, err = reg.Lookup(BlogPost{})
	assert.ErrorIs(t, err, types.ErrNotRegistered, "values are not entities")
	_, err = reg.Lookup(nil)
	assert.ErrorIs(t, err, types.ErrNotRegistered)

	w, err := reg.Table("writers")
	require.NoError(t, err)
	assert.Equal(t, "writers", w.Name)
	_, err = reg.Table("nope")
	assert.True(t, types.IsSchemaError(err))

	assert.Equal(t, []string{"tags", "writers"}, reg.Peers("blog_posts"))
	assert.Equal(t, []string{"blog_posts"}, reg.Peers("writers"))
	assert.Len(t, reg.Tables(), 3)

	assert.ErrorIs(t, reg.Register(writerTable()), types.ErrDuplicateTable)
}

func TestRegistryRejectsJunctionPrefix(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	bad := Define[Tag]("junction_x").
		TextKey("label", func(g *Tag) *string { return &g.Label }, types.AssignCustom).
		MustBuild()
	assert.Error(t, reg.Register(bad))
}

func TestJunctionOf(t *testing.T) {
	j := JunctionOf("writers", "blog_posts")
	assert.Equal(t, JunctionOf("blog_posts", "writers"), j)
	assert.Equal(t, "junction_blog_posts_writers", j.Name)
	own, other := j.Columns("writers")
	assert.Equal(t, "writers", own)
	assert.Equal(t, "blog_posts", other)
	assert.Equal(t, []string{"blog_posts"}, j.KeyColumns("blog_posts"))
	assert.Nil(t, j.KeyColumns("tags"))

	self := JunctionOf("people", "people")
	assert.True(t, self.Self())
	own, other = self.Columns("people")
	assert.Equal(t, "people", own)
	assert.Equal(t, "people_peer", other)
	assert.Equal(t, []string{"people", "people_peer"}, self.KeyColumns("people"))
	assert.True(t, IsJunctionName(self.Name))
}

type Shelf struct {
	ID   string
	Tags []*Tag
}

type Bin struct {
	ID      string
	Writers []*Writer
}

func TestRegistryRejectsJunctionClash(t *testing.T) {
	shelves := ToMany(Define[Shelf]("a_b").
		TextKey("id", func(s *Shelf) *string { return &s.ID }, types.AssignCustom),
		"Tags", "c", func(s *Shelf) *[]*Tag { return &s.Tags }).
		MustBuild()
	bins := ToMany(Define[Bin]("a").
		TextKey("id", func(b *Bin) *string { return &b.ID }, types.AssignCustom),
		"Writers", "b_c", func(b *Bin) *[]*Writer { return &b.Writers }).
		MustBuild()

	reg, err := NewRegistry(shelves)
	require.NoError(t, err)
	err = reg.Register(bins)
	assert.ErrorIs(t, err, types.ErrJunctionClash)
	assert.True(t, types.IsSchemaError(err))
	_, err = reg.Table("a")
	assert.Error(t, err, "rejected table is not registered")

	_, err = NewRegistry(bins, shelves)
	assert.ErrorIs(t, err, types.ErrJunctionClash, "order does not matter")

	both := ToMany(Define[Shelf]("shelves").
		TextKey("id", func(s *Shelf) *string { return &s.ID }, types.AssignCustom),
		"Tags", "tags", func(s *Shelf) *[]*Tag { return &s.Tags }).
		MustBuild()
	_, err = NewRegistry(both, tagTable())
	assert.NoError(t, err, "one pair seen from both sides is no clash")
}
