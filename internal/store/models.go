package store

import (
	"strconv"
	"strings"
	"time"
)

// Role is the privilege level persisted for a user.
type Role string

const (
	RoleUser     Role = "user"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleSet = map[Role]struct{}{
	RoleUser:     {},
	RoleOperator: {},
	RoleAdmin:    {},
}

// ParseRole converts a string into a known Role.
func ParseRole(value string) (Role, bool) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	_, ok := roleSet[normalized]
	return normalized, ok
}

// Status represents the moderation lifecycle of a certificate.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var statusSet = map[Status]struct{}{
	StatusPending:  {},
	StatusApproved: {},
	StatusRejected: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected}
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// User is a platform actor persisted on first contact. Users are never
// deleted; role changes and the blocked flag are the only mutations.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	Role       Role
	IsBlocked  bool
	CreatedAt  time.Time
}

// DisplayName returns the user's name for chat messages.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "id" + strconv.FormatInt(u.TelegramID, 10)
}

// Certificate is a vehicle document record. Created only by a completed
// capture session; its status moves only through the moderation workflow.
type Certificate struct {
	ID              int64
	Serial          string
	OperatorID      int64
	AdminID         *int64
	CarBrand        string
	CarModel        string
	LicensePlate    string
	VIN             string
	RollNumber      string
	RollPhoto       string
	CarPhoto        string
	Status          Status
	RejectionReason string
	CreatedAt       time.Time
	DecidedAt       *time.Time
}

// StatusCounts aggregates certificate counts for statistics output.
type StatusCounts struct {
	Total        int
	Pending      int
	Approved     int
	Rejected     int
	CreatedToday int
}

// UserCounts aggregates user counts for statistics output.
type UserCounts struct {
	Total     int
	Operators int
	Blocked   int
}

// OperatorStats summarizes one operator's submissions.
type OperatorStats struct {
	Total    int
	Approved int
	Pending  int
}

// ApprovalRate returns the approved share in whole percent.
func (s OperatorStats) ApprovalRate() int {
	if s.Total == 0 {
		return 0
	}
	return int(float64(s.Approved)/float64(s.Total)*100 + 0.5)
}
