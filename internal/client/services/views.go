package services

import (
	"sort"
	"strings"

	"github.com/dmitrijs2005/dealroom/internal/client/categories"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

// CategoryCard is one category with its documents, as shown by the
// per-category view.
type CategoryCard struct {
	Category  models.Category
	Documents []models.Document
	Count     int
	// Remaining is the number of free slots, never negative.
	Remaining int
	// OverLimit is set when out-of-band uploads pushed Count past MaxFiles.
	OverLimit bool
	// AllDeals marks cards of the global view. Limits are per deal, so
	// such cards carry neither Remaining nor OverLimit.
	AllDeals bool
}

// CategoryView projects the catalog into one card per category.
type CategoryView struct {
	reg     *categories.Registry
	catalog *Catalog
}

func NewCategoryView(reg *categories.Registry, catalog *Catalog) *CategoryView {
	return &CategoryView{reg: reg, catalog: catalog}
}

func (v *CategoryView) Cards() []CategoryCard {
	docs := v.catalog.Snapshot()
	global := v.catalog.DealID() == ""
	cats := v.reg.Categories()
	cards := make([]CategoryCard, 0, len(cats))
	for _, c := range cats {
		ds := categories.DocumentsFor(docs, c.Key)
		card := CategoryCard{Category: c, Documents: ds, Count: len(ds), AllDeals: global}
		if global {
			cards = append(cards, card)
			continue
		}
		card.Remaining = max(c.MaxFiles-card.Count, 0)
		card.OverLimit = card.Count > c.MaxFiles
		cards = append(cards, card)
	}
	return cards
}

// CategoryState is the status panel's verdict for one category.
type CategoryState string

const (
	StateComplete  CategoryState = "complete"
	StateMissing   CategoryState = "missing"
	StateOptional  CategoryState = "optional"
	StateOverLimit CategoryState = "over_limit"
	// StateAllDeals is reported by the global view, where completion
	// has no meaning.
	StateAllDeals CategoryState = "all_deals"
)

type StatusItem struct {
	Category models.Category
	Count    int
	State    CategoryState
}

// StatusSummary is the completion dashboard.
type StatusSummary struct {
	Items            []StatusItem
	RequiredTotal    int
	RequiredComplete int
	// Percent of required categories holding at least one document.
	Percent         int
	MissingRequired []models.Category
	TotalDocuments  int
	// AllDeals is set for the global view, which only counts documents.
	AllDeals bool
}

type StatusPanel struct {
	reg     *categories.Registry
	catalog *Catalog
}

func NewStatusPanel(reg *categories.Registry, catalog *Catalog) *StatusPanel {
	return &StatusPanel{reg: reg, catalog: catalog}
}

func (p *StatusPanel) Summary() StatusSummary {
	docs := p.catalog.Snapshot()
	s := StatusSummary{TotalDocuments: len(docs)}

	if p.catalog.DealID() == "" {
		s.AllDeals = true
		for _, c := range p.reg.Categories() {
			n := len(categories.DocumentsFor(docs, c.Key))
			s.Items = append(s.Items, StatusItem{Category: c, Count: n, State: StateAllDeals})
		}
		return s
	}

	for _, c := range p.reg.Categories() {
		n := len(categories.DocumentsFor(docs, c.Key))
		item := StatusItem{Category: c, Count: n}

		switch {
		case n > c.MaxFiles:
			item.State = StateOverLimit
		case !c.Required:
			item.State = StateOptional
		case n > 0:
			item.State = StateComplete
		default:
			item.State = StateMissing
		}

		if c.Required {
			s.RequiredTotal++
			if n > 0 {
				s.RequiredComplete++
			} else {
				s.MissingRequired = append(s.MissingRequired, c)
			}
		}
		s.Items = append(s.Items, item)
	}

	if s.RequiredTotal > 0 {
		s.Percent = s.RequiredComplete * 100 / s.RequiredTotal
	} else {
		s.Percent = 100
	}
	return s
}

type SortField string

const (
	SortCreated  SortField = "created"
	SortName     SortField = "name"
	SortSize     SortField = "size"
	SortCategory SortField = "category"
)

// ListQuery filters and orders the flat list. The zero value lists
// everything newest first.
type ListQuery struct {
	// Search is matched case-insensitively against name and category label.
	Search   string
	Category string
	SortBy   SortField
	// Asc flips the default descending order.
	Asc bool
}

// FlatList is the searchable, sortable table over every document.
type FlatList struct {
	reg     *categories.Registry
	catalog *Catalog
}

func NewFlatList(reg *categories.Registry, catalog *Catalog) *FlatList {
	return &FlatList{reg: reg, catalog: catalog}
}

func (l *FlatList) Rows(q ListQuery) []models.Document {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	var rows []models.Document
	for _, d := range l.catalog.Snapshot() {
		if q.Category != "" && d.Category != q.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.Name), needle) &&
			!strings.Contains(strings.ToLower(l.reg.Label(d.Category)), needle) {
			continue
		}
		rows = append(rows, d)
	}

	less := func(a, b models.Document) bool {
		switch q.SortBy {
		case SortName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case SortSize:
			return a.Size < b.Size
		case SortCategory:
			return l.reg.Label(a.Category) < l.reg.Label(b.Category)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if q.Asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
	return rows
}

// ParseSortField accepts the sort names used on the command line.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(s)); f {
	case SortCreated, SortName, SortSize, SortCategory:
		return f, true
	}
	return "", false
}
