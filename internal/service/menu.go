package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

// MenuNode is one entry of a user's navigation tree.
type MenuNode struct {
	ID        uuid.UUID   `json:"id"`
	Code      string      `json:"code"`
	Title     string      `json:"title"`
	URL       string      `json:"url"`
	Icon      string      `json:"icon"`
	SortOrder int         `json:"sortOrder"`
	Children  []*MenuNode `json:"children"`
}

type MenuService struct {
	Deps
}

func NewMenuService(d Deps) *MenuService { return &MenuService{Deps: d} }

// MenuTree builds the navigation visible to userID. Only menus granted to
// one of the user's active roles appear; a granted menu whose parent is not
// granted is left out together with its subtree. Siblings are ordered by
// sort order.
func (s *MenuService) MenuTree(ctx context.Context, userID uuid.UUID) ([]*MenuNode, error) {
	uow := s.Store.UnitOfWork(ctx)

	roles, err := activeRoles(ctx, uow, userID)
	if err != nil || len(roles) == 0 {
		return []*MenuNode{}, err
	}

	grants, err := repository.Repo[model.RoleMenu](uow).Find(ctx, sq.Eq{"role_id": roleIDs(roles)})
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return []*MenuNode{}, nil
	}
	seen := make(map[uuid.UUID]bool, len(grants))
	menuIDs := make([]uuid.UUID, 0, len(grants))
	for _, g := range grants {
		if !seen[g.MenuID] {
			seen[g.MenuID] = true
			menuIDs = append(menuIDs, g.MenuID)
		}
	}

	repo := repository.Repo[model.Menu](uow)
	menus, err := repo.Select(ctx, repo.Query().
		Where(sq.Eq{"id": menuIDs, "is_active": true}).
		OrderBy("sort_order", "title"))
	if err != nil {
		return nil, err
	}
	return buildMenuTree(menus)
}

// buildMenuTree assembles menus (already sorted) breadth first from a
// children-by-parent index. Parent links that loop back on themselves
// yield ErrMenuCycle.
func buildMenuTree(menus []*model.Menu) ([]*MenuNode, error) {
	byID := make(map[uuid.UUID]*model.Menu, len(menus))
	for _, m := range menus {
		byID[m.ID] = m
	}

	var roots []*model.Menu
	children := make(map[uuid.UUID][]*model.Menu)
	for _, m := range menus {
		switch {
		case m.ParentID == nil:
			roots = append(roots, m)
		case byID[*m.ParentID] != nil:
			children[*m.ParentID] = append(children[*m.ParentID], m)
		}
	}

	visited := make(map[uuid.UUID]bool, len(menus))
	tree := make([]*MenuNode, 0, len(roots))
	queue := make([]*MenuNode, 0, len(menus))
	for _, r := range roots {
		n := newMenuNode(r)
		visited[r.ID] = true
		tree = append(tree, n)
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range children[n.ID] {
			if visited[c.ID] {
				return nil, ErrMenuCycle
			}
			visited[c.ID] = true
			child := newMenuNode(c)
			n.Children = append(n.Children, child)
			queue = append(queue, child)
		}
	}

	// Anything not reached either hangs below a dropped parent or sits on a
	// loop. Walk up the parent chain to tell the two apart.
	for _, m := range menus {
		if visited[m.ID] {
			continue
		}
		if hasCycle(m, byID) {
			return nil, ErrMenuCycle
		}
	}
	return tree, nil
}

func hasCycle(m *model.Menu, byID map[uuid.UUID]*model.Menu) bool {
	seen := map[uuid.UUID]bool{}
	for cur := m; cur != nil && cur.ParentID != nil; cur = byID[*cur.ParentID] {
		if seen[cur.ID] {
			return true
		}
		seen[cur.ID] = true
	}
	return false
}

func newMenuNode(m *model.Menu) *MenuNode {
	return &MenuNode{
		ID:        m.ID,
		Code:      m.Code,
		Title:     m.Title,
		URL:       m.URL,
		Icon:      m.Icon,
		SortOrder: m.SortOrder,
		Children:  []*MenuNode{},
	}
}

// MenuInput is the create/update payload for a menu entry.
type MenuInput struct {
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Icon      string     `json:"icon"`
	SortOrder int        `json:"sortOrder"`
	ParentID  *uuid.UUID `json:"parentId"`
}

// List returns every menu, flat, ordered by sort order.
func (s *MenuService) List(ctx context.Context) (Result[[]*model.Menu], error) {
	repo := repository.Repo[model.Menu](s.Store.UnitOfWork(ctx))
	menus, err := repo.Select(ctx, repo.Query().OrderBy("sort_order", "title"))
	if err != nil {
		return Result[[]*model.Menu]{}, err
	}
	return ok(nonNil(menus)), nil
}

func (s *MenuService) Create(ctx context.Context, in MenuInput) (Result[*model.Menu], error) {
	return s.save(ctx, uuid.Nil, in)
}

func (s *MenuService) Update(ctx context.Context, id uuid.UUID, in MenuInput) (Result[*model.Menu], error) {
	return s.save(ctx, id, in)
}

func (s *MenuService) save(ctx context.Context, id uuid.UUID, in MenuInput) (Result[*model.Menu], error) {
	in.Code = normalizeKey(in.Code)
	var v violations
	v.match(codeRegexp, in.Code, "Code")
	v.required(in.Title, "Title")
	if !v.empty() {
		return fail[*model.Menu](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Menu](uow)

	menu := &model.Menu{}
	if id != uuid.Nil {
		found, err := repo.GetByID(ctx, id)
		if err != nil {
			return Result[*model.Menu]{}, err
		}
		if found == nil {
			return notFound[*model.Menu]("Menu"), nil
		}
		menu = found
	}

	dup, err := repo.Exists(ctx, sq.And{sq.Eq{"code": in.Code}, sq.NotEq{"id": id}})
	if err != nil {
		return Result[*model.Menu]{}, err
	}
	if dup {
		return fail[*model.Menu](ErrDuplicate, "Menu code '"+in.Code+"' already exists."), nil
	}

	if in.ParentID != nil {
		parent, err := repo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return Result[*model.Menu]{}, err
		}
		if parent == nil {
			return fail[*model.Menu](ErrValidation, "Parent menu not found."), nil
		}
		if id != uuid.Nil {
			loops, err := s.wouldCycle(ctx, repo, id, parent)
			if err != nil {
				return Result[*model.Menu]{}, err
			}
			if loops {
				return fail[*model.Menu](ErrValidation, "Parent assignment would create a menu cycle."), nil
			}
		}
	}

	menu.Code = in.Code
	menu.Title = strings.TrimSpace(in.Title)
	menu.URL = strings.TrimSpace(in.URL)
	menu.Icon = in.Icon
	menu.SortOrder = in.SortOrder
	menu.ParentID = in.ParentID
	if id == uuid.Nil {
		repo.Add(menu)
	} else {
		repo.Update(menu)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Menu]{}, err
	}
	return ok(menu), nil
}

// wouldCycle walks up from parent and reports whether id is reached.
func (s *MenuService) wouldCycle(ctx context.Context, repo *repository.Repository[model.Menu, *model.Menu], id uuid.UUID, parent *model.Menu) (bool, error) {
	seen := map[uuid.UUID]bool{}
	for cur := parent; cur != nil; {
		if cur.ID == id || seen[cur.ID] {
			return true, nil
		}
		seen[cur.ID] = true
		if cur.ParentID == nil {
			return false, nil
		}
		next, err := repo.GetByID(ctx, *cur.ParentID)
		if err != nil {
			return false, err
		}
		cur = next
	}
	return false, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
