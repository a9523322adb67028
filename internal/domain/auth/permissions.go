package auth

const (
	RoleAdmin    = "admin"
	RoleApprover = "approver"
	RoleEmployee = "employee"
)

const (
	PermUsersRead          = "directory.users.read"
	PermUsersWrite         = "directory.users.write"
	PermOrgRead            = "directory.org.read"
	PermOrgWrite           = "directory.org.write"
	PermLeaveRead          = "leave.read"
	PermLeaveWrite         = "leave.write"
	PermLeaveApprove       = "leave.approve"
	PermQuotaRead          = "quota.read"
	PermQuotaWrite         = "quota.write"
	PermQuotaReset         = "quota.reset"
	PermAnnouncementsRead  = "announcements.read"
	PermAnnouncementsWrite = "announcements.write"
	PermReportsRead        = "reports.read"
	PermSystemAdmin        = "admin.system"
)

var DefaultPermissions = []string{
	PermUsersRead,
	PermUsersWrite,
	PermOrgRead,
	PermOrgWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermQuotaRead,
	PermQuotaWrite,
	PermQuotaReset,
	PermAnnouncementsRead,
	PermAnnouncementsWrite,
	PermReportsRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermUsersRead,
		PermOrgRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermQuotaRead,
		PermAnnouncementsRead,
	},
	RoleApprover: {
		PermUsersRead,
		PermOrgRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermQuotaRead,
		PermAnnouncementsRead,
		PermReportsRead,
	},
	RoleAdmin: {
		PermUsersRead,
		PermUsersWrite,
		PermOrgRead,
		PermOrgWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermQuotaRead,
		PermQuotaWrite,
		PermQuotaReset,
		PermAnnouncementsRead,
		PermAnnouncementsWrite,
		PermReportsRead,
		PermSystemAdmin,
	},
}
