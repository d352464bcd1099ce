package repository

import (
	"certprep_backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) Create(category *model.Category) error {
	return r.DB.Create(category).Error
}

func (r *CategoryRepository) Update(category *model.Category) error {
	return r.DB.Save(category).Error
}

func (r *CategoryRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Category{}, id).Error
}

func (r *CategoryRepository) FindByID(id uint) (*model.Category, error) {
	var category model.Category
	if err := r.DB.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListAll() ([]model.Category, error) {
	var categories []model.Category
	err := r.DB.Order("id").Find(&categories).Error
	return categories, err
}

// DescendantIDs returns the category subtree rooted at id, the category
// itself included. The whole table is loaded once and walked in memory;
// category counts are small and this avoids N recursive queries.
func (r *CategoryRepository) DescendantIDs(tx *gorm.DB, id uint) ([]uint, error) {
	if tx == nil {
		tx = r.DB
	}
	var categories []model.Category
	if err := tx.Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}

	children := make(map[uint][]uint, len(categories))
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	ids := []uint{id}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids, nil
}
