package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

func TestMenuTreeExcludesUngrantedSiblings(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	a := f.menu(t, "A", 1, nil)
	b := f.menu(t, "B", 1, a)
	c := f.menu(t, "C", 2, a)
	u := f.user(t, "menuuser")
	f.role(t, "R", nil, []*model.Menu{a, b}, u)

	tree, err := service.NewMenuService(f.deps).MenuTree(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, a.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, b.ID, tree[0].Children[0].ID)
	for _, n := range tree[0].Children {
		require.NotEqual(t, c.ID, n.ID)
	}
}

func TestMenuTreeDropsChildOfUngrantedParent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	root := f.menu(t, "ROOT", 1, nil)
	child := f.menu(t, "CHILD", 1, root)
	other := f.menu(t, "OTHER", 2, nil)
	u := f.user(t, "partial")
	f.role(t, "R", nil, []*model.Menu{child, other}, u)

	tree, err := service.NewMenuService(f.deps).MenuTree(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, other.ID, tree[0].ID)
	require.Empty(t, tree[0].Children)
}

func TestMenuTreeOrdersBySortOrderAndMergesRoles(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	second := f.menu(t, "SECOND", 2, nil)
	first := f.menu(t, "FIRST", 1, nil)
	u := f.user(t, "tworoles")
	f.role(t, "R1", nil, []*model.Menu{second, first}, u)
	f.role(t, "R2", nil, []*model.Menu{first}, u)

	tree, err := service.NewMenuService(f.deps).MenuTree(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, "FIRST", tree[0].Code)
	require.Equal(t, "SECOND", tree[1].Code)
}

func TestMenuTreeWithoutRolesIsEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.menu(t, "A", 1, nil)
	u := f.user(t, "nobody")

	tree, err := service.NewMenuService(f.deps).MenuTree(context.Background(), u.ID)
	require.NoError(t, err)
	require.Empty(t, tree)
}

func TestMenuUpdateRefusesCycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	svc := service.NewMenuService(f.deps)
	ctx := context.Background()

	parent, err := svc.Create(ctx, service.MenuInput{Code: "PARENT", Title: "Parent"})
	require.NoError(t, err)
	require.True(t, parent.Success, parent.Errors)
	child, err := svc.Create(ctx, service.MenuInput{Code: "CHILD", Title: "Child", ParentID: &parent.Data.ID})
	require.NoError(t, err)
	require.True(t, child.Success, child.Errors)

	res, err := svc.Update(ctx, parent.Data.ID, service.MenuInput{Code: "PARENT", Title: "Parent", ParentID: &child.Data.ID})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err(), service.ErrValidation)

	self, err := svc.Update(ctx, parent.Data.ID, service.MenuInput{Code: "PARENT", Title: "Parent", ParentID: &parent.Data.ID})
	require.NoError(t, err)
	require.False(t, self.Success)
}

func TestMenuCreateRejectsDuplicateCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	svc := service.NewMenuService(f.deps)

	_, err := svc.Create(context.Background(), service.MenuInput{Code: "dash", Title: "Dashboard"})
	require.NoError(t, err)
	res, err := svc.Create(context.Background(), service.MenuInput{Code: "DASH", Title: "Again"})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), service.ErrDuplicate)
}
