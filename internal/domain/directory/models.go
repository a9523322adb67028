package directory

import "time"

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Position carries the yearly-reset scope flag: usage for employees holding
// an auto-reset position is cleared at the accounting-year boundary.
type Position struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AutoReset bool      `json:"autoReset"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RoleID       string    `json:"roleId"`
	RoleName     string    `json:"roleName"`
	DepartmentID string    `json:"departmentId,omitempty"`
	PositionID   string    `json:"positionId,omitempty"`
	LineUserID   string    `json:"lineUserId,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}
