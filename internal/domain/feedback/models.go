package feedback

import "time"

type Cycle struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	StartDate          string    `json:"startDate"`
	EndDate            string    `json:"endDate"`
	NominationDeadline string    `json:"nominationDeadline,omitempty"`
	ResponseDeadline   string    `json:"responseDeadline,omitempty"`
	RatingScale        string    `json:"ratingScale"`
	AnonymityThreshold int       `json:"anonymityThreshold"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
}

type CycleInput struct {
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	NominationDeadline *time.Time
	ResponseDeadline   *time.Time
	RatingScale        string
	AnonymityThreshold int
}

type Assignment struct {
	ReviewerEmployeeID string `json:"reviewerEmployeeId"`
	Relationship       string `json:"relationship"`
}

type Request struct {
	ID                 string     `json:"id"`
	CycleID            string     `json:"cycleId"`
	CycleName          string     `json:"cycleName"`
	RatingScale        string     `json:"ratingScale"`
	ResponseDeadline   string     `json:"responseDeadline,omitempty"`
	SubjectEmployeeID  string     `json:"subjectEmployeeId"`
	SubjectName        string     `json:"subjectName"`
	ReviewerEmployeeID string     `json:"reviewerEmployeeId"`
	Relationship       string     `json:"relationship"`
	Status             string     `json:"status"`
	Rating             *float64   `json:"rating,omitempty"`
	Comments           string     `json:"comments,omitempty"`
	SubmittedAt        *time.Time `json:"submittedAt,omitempty"`
	CycleStatus        string     `json:"-"`
}

type Response struct {
	ReviewerEmployeeID string
	Relationship       string
	Rating             float64
	Comments           string
}

type RelationshipResult struct {
	Relationship string   `json:"relationship"`
	Responses    int      `json:"responses"`
	Average      *float64 `json:"average,omitempty"`
	Suppressed   bool     `json:"suppressed"`
	Comments     []string `json:"comments,omitempty"`
}

type Results struct {
	CycleID           string               `json:"cycleId"`
	SubjectEmployeeID string               `json:"subjectEmployeeId"`
	RatingScale       string               `json:"ratingScale"`
	Overall           *float64             `json:"overall"`
	Relationships     []RelationshipResult `json:"relationships"`
}

// Reminder is a pending request whose response deadline is near.
type Reminder struct {
	RequestID      string
	CycleName      string
	ReviewerUserID string
	SubjectName    string
	Deadline       time.Time
}
