package models

import (
	"fmt"
	"strings"
	"time"
)

// Role selects which collection and record shape is in play.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole accepts singular or plural role names.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "teacher", "teachers":
		return RoleTeacher, nil
	case "student", "students":
		return RoleStudent, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Plural returns the collection-style name used in routes and messages.
func (r Role) Plural() string {
	return string(r) + "s"
}

// Counterpart returns the role a user of r browses.
func (r Role) Counterpart() Role {
	if r == RoleTeacher {
		return RoleStudent
	}
	return RoleTeacher
}

// TeacherDetails carries teacher-only listing fields.
type TeacherDetails struct {
	Experience int `json:"experience"`
}

// StudentDetails carries student-only listing fields.
type StudentDetails struct {
	Grade         string   `json:"grade"`
	Salary        *float64 `json:"salary,omitempty"`
	TeachingHours *float64 `json:"teachingHours,omitempty"`
}

// Listing is a teacher or student profile. Role discriminates which of
// Teacher or Student is populated.
type Listing struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"ownerId"`
	Role             Role            `json:"role"`
	Name             string          `json:"name"`
	Subject          string          `json:"subject"`
	PhoneNumber      string          `json:"phoneNumber"`
	SpecificLocation string          `json:"specificLocation"`
	Province         string          `json:"province"`
	District         string          `json:"district"`
	PhotoURL         string          `json:"photoUrl"`
	Teacher          *TeacherDetails `json:"teacher,omitempty"`
	Student          *StudentDetails `json:"student,omitempty"`
	CreatedAt        *time.Time      `json:"createdAt,omitempty"`
}

// CreatedAtSeconds returns the creation time in seconds since epoch, or 0
// when the store never stamped the record.
func (l Listing) CreatedAtSeconds() int64 {
	if l.CreatedAt == nil {
		return 0
	}
	return l.CreatedAt.Unix()
}

// ContactURL is the dialer hand-off for the listing's phone number.
func (l Listing) ContactURL() string {
	phone := strings.TrimSpace(l.PhoneNumber)
	if phone == "" {
		return ""
	}
	return "tel:" + strings.ReplaceAll(phone, " ", "")
}

// CheckShape verifies the discriminant agrees with the populated payload.
func (l Listing) CheckShape() error {
	switch l.Role {
	case RoleTeacher:
		if l.Teacher == nil || l.Student != nil {
			return fmt.Errorf("teacher listing %s must carry teacher details only", l.ID)
		}
	case RoleStudent:
		if l.Student == nil || l.Teacher != nil {
			return fmt.Errorf("student listing %s must carry student details only", l.ID)
		}
	default:
		return fmt.Errorf("listing %s has unknown role %q", l.ID, l.Role)
	}
	return nil
}

// ListingDetail is the detail-screen payload.
type ListingDetail struct {
	Listing
	ContactURL string `json:"contactUrl"`
}

// Browse status values reported in list metadata.
const (
	BrowseStatusOK          = "ok"
	BrowseStatusEmpty       = "empty"
	BrowseStatusUnavailable = "unavailable"
)

// BrowseQuery holds the derived-view inputs of one browse request.
type BrowseQuery struct {
	Role       Role
	District   string
	SortNewest bool
}

// BrowseResult is the derived view plus what the client needs to render
// its filter controls.
type BrowseResult struct {
	Role       Role      `json:"role"`
	Listings   []Listing `json:"listings"`
	Districts  []string  `json:"districts"`
	District   string    `json:"district"`
	SortNewest bool      `json:"sortNewest"`
	Total      int       `json:"total"`
	Status     string    `json:"status"`
}
