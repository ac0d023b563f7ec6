package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the shared.hospitals table. Rows live in the shared
// schema because they exist before any tenant schema does.
type Hospital struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Subdomain         string    `db:"subdomain" json:"subdomain"`
	AdminEmail        string    `db:"admin_email" json:"admin_email"`
	AdminPasswordHash string    `db:"admin_password_hash" json:"-"`
	Address           *string   `db:"address" json:"address,omitempty"`
	Phone             *string   `db:"phone" json:"phone,omitempty"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Subscription maps to the shared.subscriptions table.
type Subscription struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	HospitalID uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	Plan       string     `db:"plan" json:"plan"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// DashboardStats aggregates tenant counts for the admin dashboard.
type DashboardStats struct {
	TotalPatients     int `json:"total_patients"`
	TotalAppointments int `json:"total_appointments"`
	ActiveReferrals   int `json:"active_referrals"`
	ActiveChats       int `json:"active_chats"`
}
