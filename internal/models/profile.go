package models

// Profile is the read-only summary of a user shown in conversation headers.
type Profile struct {
	ID          string `json:"uid"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Online      bool   `json:"online"`
}
