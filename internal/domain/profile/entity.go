package profile

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format of DateOfBirth.
const DateLayout = "2006-01-02"

// Record is a user's profile. ID equals the owning user's id.
type Record struct {
	ID          string
	Email       string
	FullName    string
	Phone       string
	DateOfBirth *time.Time
	Address     string
	City        string
	State       string
	ZipCode     string
}

// Update is the payload of a store write. Email and ID are never part of it.
type Update struct {
	FullName    string
	Phone       string
	DateOfBirth *time.Time
	Address     string
	City        string
	State       string
	ZipCode     string
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := r
	if r.DateOfBirth != nil {
		d := *r.DateOfBirth
		out.DateOfBirth = &d
	}
	return out
}

// Update extracts the mutable fields.
func (r Record) Update() Update {
	c := r.Clone()
	return Update{
		FullName:    c.FullName,
		Phone:       c.Phone,
		DateOfBirth: c.DateOfBirth,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		ZipCode:     c.ZipCode,
	}
}

type recordJSON struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    string  `json:"full_name"`
	Phone       string  `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	ZipCode     string  `json:"zip_code"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:       r.ID,
		Email:    r.Email,
		FullName: r.FullName,
		Phone:    r.Phone,
		Address:  r.Address,
		City:     r.City,
		State:    r.State,
		ZipCode:  r.ZipCode,
	}
	if r.DateOfBirth != nil {
		s := r.DateOfBirth.Format(DateLayout)
		out.DateOfBirth = &s
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var dob *time.Time
	if in.DateOfBirth != nil {
		d, err := ParseDate(*in.DateOfBirth)
		if err != nil {
			return err
		}
		dob = d
	}

	*r = Record{
		ID:          in.ID,
		Email:       in.Email,
		FullName:    in.FullName,
		Phone:       in.Phone,
		DateOfBirth: dob,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		ZipCode:     in.ZipCode,
	}
	return nil
}

// ParseDate decodes a YYYY-MM-DD value. Blank input means no date.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &d, nil
}
