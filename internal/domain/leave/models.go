package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	CategoryGeneral   = "general"
	CategoryEmergency = "emergency"
)

type LeaveType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Unlimited   bool      `json:"unlimited"`
	HourBased   bool      `json:"hourBased"`
	RequiresDoc bool      `json:"requiresDoc"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LeaveRequest is day-denominated unless both StartTime and EndTime are set,
// in which case it is hour-denominated; the two forms are mutually exclusive.
type LeaveRequest struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	UserName    string       `json:"userName,omitempty"`
	LeaveTypeID string       `json:"leaveTypeId"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     time.Time    `json:"endDate"`
	StartTime   string       `json:"startTime,omitempty"`
	EndTime     string       `json:"endTime,omitempty"`
	Reason      string       `json:"reason"`
	Status      string       `json:"status"`
	ApprovedBy  string       `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time   `json:"approvedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ID             string    `json:"id"`
	LeaveRequestID string    `json:"leaveRequestId,omitempty"`
	FileName       string    `json:"fileName"`
	ContentType    string    `json:"contentType"`
	FileSize       int64     `json:"fileSize"`
	StoredName     string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Holiday struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}
