package models

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

type User struct {
	Base
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role" gorm:"type:varchar(20);default:staff"` // "admin", "manager", "staff"
	IsActive bool   `json:"is_active" gorm:"default:true"`
}
