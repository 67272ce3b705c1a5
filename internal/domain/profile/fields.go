package profile

import "strings"

// Field names a single editable (or read-only) profile attribute.
type Field string

const (
	FieldFullName    Field = "full_name"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldDateOfBirth Field = "date_of_birth"
	FieldAddress     Field = "address"
	FieldCity        Field = "city"
	FieldState       Field = "state"
	FieldZipCode     Field = "zip_code"
)

var fieldAliases = map[string]Field{
	"full_name":     FieldFullName,
	"fullname":      FieldFullName,
	"email":         FieldEmail,
	"phone":         FieldPhone,
	"date_of_birth": FieldDateOfBirth,
	"dateofbirth":   FieldDateOfBirth,
	"address":       FieldAddress,
	"city":          FieldCity,
	"state":         FieldState,
	"zip_code":      FieldZipCode,
	"zipcode":       FieldZipCode,
}

// MutableFields lists the fields written by a save, in column order.
var MutableFields = []Field{
	FieldFullName,
	FieldPhone,
	FieldDateOfBirth,
	FieldAddress,
	FieldCity,
	FieldState,
	FieldZipCode,
}

// ParseField accepts snake_case and camelCase keys.
func ParseField(key string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return "", ErrUnknownField
	}
	return f, nil
}

// Value returns the string form of f on r. Dates use DateLayout, a missing date is "".
func (r Record) Value(f Field) string {
	switch f {
	case FieldFullName:
		return r.FullName
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldDateOfBirth:
		if r.DateOfBirth == nil {
			return ""
		}
		return r.DateOfBirth.Format(DateLayout)
	case FieldAddress:
		return r.Address
	case FieldCity:
		return r.City
	case FieldState:
		return r.State
	case FieldZipCode:
		return r.ZipCode
	}
	return ""
}

// set writes one mutable field. Email is not settable.
func (r *Record) set(f Field, value string) error {
	switch f {
	case FieldFullName:
		r.FullName = value
	case FieldPhone:
		r.Phone = value
	case FieldDateOfBirth:
		d, err := ParseDate(value)
		if err != nil {
			return err
		}
		r.DateOfBirth = d
	case FieldAddress:
		r.Address = value
	case FieldCity:
		r.City = value
	case FieldState:
		r.State = value
	case FieldZipCode:
		r.ZipCode = value
	case FieldEmail:
		return ErrEmailReadOnly
	default:
		return ErrUnknownField
	}
	return nil
}
