package service

import (
	"certprep_backend/internal/model"
	"certprep_backend/internal/repository"
)

type CategoryService struct {
	CategoryRepo *repository.CategoryRepository
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{CategoryRepo: categoryRepo}
}

func (s *CategoryService) Create(category *model.Category) error {
	return s.CategoryRepo.Create(category)
}

func (s *CategoryService) Update(category *model.Category) error {
	return s.CategoryRepo.Update(category)
}

func (s *CategoryService) Get(id uint) (*model.Category, error) {
	return s.CategoryRepo.FindByID(id)
}

// CategoryNode is one node of the rendered category tree.
type CategoryNode struct {
	model.Category
	Children []*CategoryNode `json:"children,omitempty"`
}

// Tree assembles the full category hierarchy in one query.
func (s *CategoryService) Tree() ([]*CategoryNode, error) {
	categories, err := s.CategoryRepo.ListAll()
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: categories[i]}
	}

	var roots []*CategoryNode
	for i := range categories {
		node := nodes[categories[i].ID]
		if pid := categories[i].ParentID; pid != nil && nodes[*pid] != nil {
			parent := nodes[*pid]
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	return roots, nil
}
