package internal

import "time"

// RegistrationForm is the payload submitted by the commitment form.
type RegistrationForm struct {
	ParentFirstName     string `json:"parentFirstName"`
	ParentLastName      string `json:"parentLastName"`
	Email               string `json:"email"`
	PlayerName          string `json:"playerName"`
	PlayerCurrentLeague string `json:"playerCurrentLeague"`
	Team                string `json:"team"`
	Level               string `json:"level"`
	LevelOther          string `json:"levelOther,omitempty"`
	Position            string `json:"position"`
	PackageName         string `json:"packageName,omitempty"`
	PackageOther        string `json:"packageOther,omitempty"`
}

type Registration struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	ConfirmationToken string    `json:"confirmationToken"`
	Confirmed         bool      `json:"confirmed"`
	PlayerCount       int       `json:"playerCount"`
	GuestCount        *int      `json:"guestCount,omitempty"` // nil for custom packages
	RegistrationForm
}

type Question struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Email     string    `json:"email"`
	Text      string    `json:"text"`
}
