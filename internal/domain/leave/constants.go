package leave

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"

	// VacationTypeCode is the leave type the statutory vacation grant credits.
	VacationTypeCode = "VAC"

	EntityLeaveRequest = "leave_request"
)
