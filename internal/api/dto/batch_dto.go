package dto

type SubmitBatchRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=1000,dive,required,url"`
}

type SubmitBatchResponse struct {
	BatchID string `json:"batch_id"`
	Items   int    `json:"items"`
	Status  string `json:"status"`
}

type ListBatchesRequest struct {
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListBatchesResponse struct {
	Batches    []BatchDTO `json:"batches"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type BatchDTO struct {
	BatchID    string `json:"batch_id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	PeakActive int64  `json:"peak_active"`
}

type FailureDTO struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Error    string `json:"error"`
}

type BatchDetailResponse struct {
	BatchDTO
	Failures []FailureDTO `json:"failures"`
}
