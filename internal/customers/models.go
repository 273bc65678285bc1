package customers

import "time"

// Customer is a destination the courier may call today. Rows are short-lived
// working data: the daily reset deactivates everyone.
type Customer struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// PhoneNumber is wire format. It never leaves the server in courier-facing
	// responses; see Public.
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Active            bool   `json:"is_active" db:"is_active"`
	CreatedBy         string `json:"created_by,omitempty" db:"created_by"`
	AssignedCourierID string `json:"assigned_courier_id,omitempty" db:"assigned_courier_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Public is the courier-facing shape: everything except the phone number.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Customer) Public() Public {
	return Public{ID: c.ID, Name: c.Name, Active: c.Active, CreatedAt: c.CreatedAt}
}
