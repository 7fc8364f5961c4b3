package notifications

const (
	TypeLeaveSubmitted    = "leave_submitted"
	TypeLeaveApproved     = "leave_approved"
	TypeLeaveRejected     = "leave_rejected"
	TypeLeaveCancelled    = "leave_cancelled"
	TypePayslipPublished  = "payslip_published"
	TypeFeedbackRequested = "feedback_requested"
	TypeFeedbackDue       = "feedback_due"
	TypeSelfReviewDue     = "self_review_due"
	TypeAccountCreated    = "account_created"
	TypeEmail             = "email"
)
