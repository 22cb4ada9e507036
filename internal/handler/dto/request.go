package dto

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// UpdateTaskRequest represents the request body for PATCH /tasks/:id.
// Absent fields leave the column untouched; an explicit empty due_date
// clears it.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// ListTasksFilters represents query parameters for GET /tasks.
type ListTasksFilters struct {
	Status  []string // Multiple statuses: ?status=TODO,DOING
	Creator *string  // ?creator=<uuid> or ?creator=me
	Overdue bool     // ?overdue=true
	Sort    []string // ?sort=-created_at,title
	Limit   int      // ?limit=50
	Offset  int      // ?offset=0
}
