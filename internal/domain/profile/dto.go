package profile

// UpdateProfileRequest represents a partial profile update. Email is not updatable.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	ZipCode     *string `json:"zip_code"`
}

// UpdateFieldRequest edits one draft field of an editor session.
type UpdateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// SessionResponse is returned when an editor session is opened.
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	View      EditorView `json:"view"`
}
