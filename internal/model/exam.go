package model

// swagger:model Exam
type Exam struct {
	BaseModel

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Legacy single-category fallback pool, consulted only when the
	// allocation rules cannot fill the quota.
	CategoryID *uint `gorm:"index;type:bigint unsigned" json:"categoryId,omitempty"`

	QuestionCount   int     `gorm:"default:10" json:"questionCount"`
	DurationSeconds int     `gorm:"not null" json:"durationSeconds"`
	PassingScore    float64 `gorm:"default:50" json:"passingScore"`

	// 1=Beginner, 2=Intermediate, 3=Advanced. Consulted by the listing
	// layer only, never by the attempt state machine.
	Level int `gorm:"default:1;index" json:"level"`

	// 0 means unlimited. Enforced by the caller of the mock start path.
	MaxMockAttempts int `gorm:"default:0" json:"maxMockAttempts"`

	IsPublished bool `gorm:"default:false;index" json:"isPublished"`
	IsPremium   bool `gorm:"default:false" json:"isPremium"`

	Allocations       []ExamCategoryAllocation `gorm:"foreignKey:ExamID" json:"allocations,omitempty"`
	PrerequisiteExams []*Exam                  `gorm:"many2many:exam_prerequisites;joinForeignKey:ExamID;joinReferences:PrerequisiteID" json:"prerequisiteExams,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamCategoryAllocation binds one category subtree to an exam quota.
// Exactly one of FixedCount / Percentage is meaningful per rule.
// Position preserves declaration order, the tie-break for remainder
// distribution.
type ExamCategoryAllocation struct {
	BaseModel

	ExamID     uint `gorm:"index;type:bigint unsigned" json:"examId"`
	CategoryID uint `gorm:"index;type:bigint unsigned" json:"categoryId"`
	FixedCount *int `json:"fixedCount,omitempty"`
	Percentage int  `gorm:"default:0" json:"percentage"`
	Position   int  `gorm:"default:0" json:"position"`
}

func (ExamCategoryAllocation) TableName() string {
	return "exam_category_allocations"
}
