package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = make([]string, 0, 5)

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleTeacher: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Principal", Value: RoleAdminPrincipal},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func init() {
	AllRoles = append(AllRoles, AdminRoles...)
	AllRoles = append(AllRoles, TeacherRoles...)
	AllRoles = append(AllRoles, StudentRoles...)
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles"`

	// tutoring fields
	Batches             []string `json:"batches,omitempty"`              // teaching/enrolment groups
	AssignedTeacherID   string   `json:"assigned_teacher_id,omitempty"`  // students only
	AssignedTeacherName string   `json:"assigned_teacher_name,omitempty"`

	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLogin    time.Time `json:"last_login"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) Active() bool {
	return u.IsActive != nil && *u.IsActive
}

func (u *User) roleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.roleStartsWith(RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return u.roleStartsWith(RoleTeacher)
}

func (u *User) IsStudent() bool {
	return u.roleStartsWith(RoleStudent)
}

type NewUser struct {
	Name              string   `json:"name" validate:"required,alphanum_"`
	Username          string   `json:"username" validate:"omitempty,alphanum_"`
	Email             string   `json:"email" validate:"omitempty,email"`
	Password          string   `json:"password" validate:"required"`
	Roles             []string `json:"roles" validate:"omitempty,allroles"`
	Batches           []string `json:"batches" validate:"omitempty,dive,alphanum_"`
	AssignedTeacherID string   `json:"assigned_teacher_id" validate:"omitempty,uuid4"`
}

type UpdateUser struct {
	Name              string   `json:"name" validate:"omitempty,alphanum_"`
	Username          string   `json:"username" validate:"omitempty,alphanum_"`
	Email             string   `json:"email" validate:"omitempty,email"`
	Password          string   `json:"password"`
	IsActive          *bool    `json:"is_active"`
	Roles             []string `json:"roles" validate:"omitempty,allroles"`
	Batches           []string `json:"batches" validate:"omitempty,dive,alphanum_"`
	AssignedTeacherID string   `json:"assigned_teacher_id" validate:"omitempty,uuid4"`
}

type ResetUserPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// GetFilter selects a single user; fields are OR'ed.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail []string
}

// QueryFilter applies an AND operation on its non-zero fields.
// Search does a case-insensitive match on one of Name, Username or Email.
type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	Batch       string    `query:"batch"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (f *QueryFilter) IsEmpty() bool {
	return f.Search == "" && f.Roles == nil && f.Batch == "" && f.IsActive == nil &&
		f.CreatedFrom.IsZero() && f.CreatedTo.IsZero()
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Batch = core.CleanString(f.Batch, true)
}

func (f GetFilter) IsZero() bool {
	return f.ID == "" && f.Username == "" && f.Email == "" && len(f.UsernameOrEmail) == 0
}
