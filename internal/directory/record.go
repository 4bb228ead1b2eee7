// Package directory provides the business logic for the provider directory:
// parsing the provider CSV dataset, caching it in two tiers, and filtering
// it for display. This package has no HTTP dependencies and can be used by
// any frontend.
package directory

import (
	"encoding/base64"
	"strings"
)

// Field names as they appear in the CSV header. The dataset is a manually
// edited spreadsheet export, so the header casing is preserved verbatim.
const (
	FieldCompany      = "Company"
	FieldContact      = "Contact"
	FieldEmail        = "email"
	FieldNumber       = "number"
	FieldMainLocation = "Main Location"
	FieldCategory     = "Category"
	FieldSpecialty    = "Specialty"
	FieldServiceArea  = "Service_Area"
	FieldTestimonial  = "Testimonial"
)

// Fields lists the recognized columns in canonical header order.
// CSV export uses exactly this order.
var Fields = []string{
	FieldCompany,
	FieldContact,
	FieldEmail,
	FieldNumber,
	FieldMainLocation,
	FieldCategory,
	FieldSpecialty,
	FieldServiceArea,
	FieldTestimonial,
}

// ProviderRecord is a single service provider row from the dataset.
// Company and Category are always non-empty; rows failing that invariant
// are dropped during parsing and never stored.
type ProviderRecord struct {
	ID           string `json:"id"`
	Company      string `json:"company"`
	Contact      string `json:"contact"`
	Email        string `json:"email"`
	Number       string `json:"number"`
	MainLocation string `json:"mainLocation"`
	Category     string `json:"category"`
	Specialty    string `json:"specialty"`
	ServiceArea  string `json:"serviceArea"`
	Testimonial  string `json:"testimonial"`
}

// ProviderList is an ordered sequence of records in CSV row order.
type ProviderList []ProviderRecord

// recordFromFields builds a ProviderRecord from header-keyed values.
// Unrecognized keys are ignored; missing keys yield empty fields.
func recordFromFields(fields map[string]string) ProviderRecord {
	rec := ProviderRecord{
		Company:      fields[FieldCompany],
		Contact:      fields[FieldContact],
		Email:        fields[FieldEmail],
		Number:       fields[FieldNumber],
		MainLocation: fields[FieldMainLocation],
		Category:     fields[FieldCategory],
		Specialty:    fields[FieldSpecialty],
		ServiceArea:  fields[FieldServiceArea],
		Testimonial:  fields[FieldTestimonial],
	}
	rec.ID = DeriveID(rec.Company, rec.Contact)
	return rec
}

// fieldValue returns the record value for a canonical header name.
func (r ProviderRecord) fieldValue(name string) string {
	switch name {
	case FieldCompany:
		return r.Company
	case FieldContact:
		return r.Contact
	case FieldEmail:
		return r.Email
	case FieldNumber:
		return r.Number
	case FieldMainLocation:
		return r.MainLocation
	case FieldCategory:
		return r.Category
	case FieldSpecialty:
		return r.Specialty
	case FieldServiceArea:
		return r.ServiceArea
	case FieldTestimonial:
		return r.Testimonial
	default:
		return ""
	}
}

// DeriveID produces the stable display identifier for a provider.
//
// The same logical provider always yields the same id across fetches:
// lowercase "{company}-{contact}" (or "no-contact"), base64-encoded,
// stripped of non-alphanumerics, truncated to 12 characters. The truncated
// id is NOT unique; two distinct providers can collide. It is a display
// hint, never a key.
func DeriveID(company, contact string) string {
	if contact == "" {
		contact = "no-contact"
	}
	raw := strings.ToLower(company + "-" + contact)

	encoded := base64.URLEncoding.EncodeToString([]byte(raw))

	var b strings.Builder
	b.Grow(12)
	for _, c := range encoded {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
			if b.Len() == 12 {
				break
			}
		}
	}
	return b.String()
}
