package domain

type Locker struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

type LockerItem struct {
	ID            int64  `json:"id"`
	ItemName      string `json:"item_name"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	StatusDisplay string `json:"status_display,omitempty"`
	ReceivedAt    string `json:"received_at,omitempty"`
}

func (i LockerItem) Identity() int64 { return i.ID }
