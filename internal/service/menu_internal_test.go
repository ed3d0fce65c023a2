package service

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/model"
)

func menuRow(code string, order int, parent *model.Menu) *model.Menu {
	m := &model.Menu{Code: code, Title: code, SortOrder: order}
	m.ID = model.NewID()
	if parent != nil {
		m.ParentID = &parent.ID
	}
	return m
}

func TestBuildMenuTreeDetectsCycle(t *testing.T) {
	t.Parallel()
	root := menuRow("ROOT", 1, nil)
	x := menuRow("X", 1, nil)
	y := menuRow("Y", 2, x)
	x.ParentID = &y.ID

	_, err := buildMenuTree([]*model.Menu{root, x, y})
	require.ErrorIs(t, err, ErrMenuCycle)
}

func TestBuildMenuTreeDetectsSelfParent(t *testing.T) {
	t.Parallel()
	m := menuRow("SELF", 1, nil)
	m.ParentID = &m.ID

	_, err := buildMenuTree([]*model.Menu{m})
	require.ErrorIs(t, err, ErrMenuCycle)
}

func TestBuildMenuTreeNestsLevels(t *testing.T) {
	t.Parallel()
	a := menuRow("A", 1, nil)
	b := menuRow("B", 1, a)
	c := menuRow("C", 1, b)
	orphan := menuRow("ORPHAN", 1, &model.Menu{Base: model.Base{ID: uuid.Must(uuid.NewV4())}})

	tree, err := buildMenuTree([]*model.Menu{a, b, c, orphan})
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, "C", tree[0].Children[0].Children[0].Code)
}
