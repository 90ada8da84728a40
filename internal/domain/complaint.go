package domain

const ComplaintPending = "pending"

type Complaint struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	StatusDisplay string `json:"status_display,omitempty"`
	Image         string `json:"image,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func (c Complaint) Identity() int64 { return c.ID }
