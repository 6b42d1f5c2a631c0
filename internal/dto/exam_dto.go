package dto

// SubmitReceipt is returned to API clients after a successful submission
// upload. The field names match the legacy deployment so existing exam
// clients keep working unchanged.
type SubmitReceipt struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// GradingSummary reports the outcome of one batch grading run.
type GradingSummary struct {
	Status           string `json:"status"`
	Message          string `json:"message,omitempty"`
	File             string `json:"file,omitempty"`
	URL              string `json:"url,omitempty"`
	TotalSubmissions int    `json:"total_submissions"`
	Graded           int    `json:"graded"`
	Errors           int    `json:"errors"`
}

// DownloadRequest is the JSON body for submission download endpoints.
// StudentID selects a single submission; when absent the whole exam is
// repackaged into one archive.
type DownloadRequest struct {
	ExamCode  string `json:"exam_code" validate:"required,min=1"`
	StudentID string `json:"student_id"`
	Secret    string `json:"secret" validate:"required,min=1"`
}

// ServiceInfo describes the API on the root endpoint.
type ServiceInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
