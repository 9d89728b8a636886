// Package domain defines the persistence models for menus, users, roles, and
// the grants between them. These types are mapped with GORM and form the core
// data layer of the menu/permission service.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Menu types.
const (
	MenuTypeCatalog = 0
	MenuTypeMenu    = 1
	MenuTypeButton  = 2
)

// Menu is a navigation entry or an action button. The Perms column holds the
// permission string (e.g. "menu:add") a principal gains when any of its roles
// is granted this menu.
//
// Fields:
//   - ID: auto-increment integer primary key.
//   - ParentID: 0 for top-level entries, otherwise the parent menu ID.
//   - Name: display name.
//   - URL: route the client navigates to (empty for buttons).
//   - Perms: comma-separated permission strings.
//   - Type: 0 catalog, 1 menu, 2 button.
//   - OrderNum: sort key among siblings.
//   - DeletedAt: soft deletion marker.
type Menu struct {
	ID        int            `json:"id"         gorm:"primaryKey;autoIncrement"`
	ParentID  int            `json:"parent_id"  gorm:"not null;default:0;index:idx_menu_parent"`
	Name      string         `json:"name"       gorm:"type:varchar(64);not null"`
	URL       string         `json:"url"        gorm:"type:varchar(255);not null;default:''"`
	Perms     string         `json:"perms"      gorm:"type:varchar(500);not null;default:''"`
	Type      int            `json:"type"       gorm:"not null;check:type IN (0,1,2)"`
	Icon      string         `json:"icon"       gorm:"type:varchar(64);not null;default:''"`
	OrderNum  int            `json:"order_num"  gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Menu.
func (Menu) TableName() string { return "menus" }

// User is an account that can authenticate. Username is the principal
// presented by clients.
type User struct {
	ID        int       `json:"id"         gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex"`
	Locked    bool      `json:"locked"     gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Role groups menu grants.
type Role struct {
	ID        int       `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"       gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Role.
func (Role) TableName() string { return "roles" }

// UserRole assigns a role to a user. Rows cascade with either side.
type UserRole struct {
	UserID int `gorm:"primaryKey"`
	RoleID int `gorm:"primaryKey;index"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Role Role `json:"-" gorm:"foreignKey:RoleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserRole.
func (UserRole) TableName() string { return "user_roles" }

// RoleMenu grants a menu to a role.
type RoleMenu struct {
	RoleID int `gorm:"primaryKey"`
	MenuID int `gorm:"primaryKey;index"`

	Role Role `json:"-" gorm:"foreignKey:RoleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Menu Menu `json:"-" gorm:"foreignKey:MenuID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RoleMenu.
func (RoleMenu) TableName() string { return "role_menus" }
