package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;comment:姓名" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null;comment:邮箱" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null;comment:密码" json:"-"` // 不返回给前端
	IsAdmin   bool      `gorm:"default:false;comment:是否管理员" json:"is_admin"`
	CreatedAt time.Time `gorm:"index;comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
