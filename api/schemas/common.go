package schemas

import (
	"regexp"
	"strings"
)

// -- Target & Profile Schemas --

// Profile holds the values a run submits into a contact form.
type Profile struct {
	Name      string `json:"name,omitempty" mapstructure:"name" yaml:"name"`
	FirstName string `json:"first_name,omitempty" mapstructure:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name,omitempty" mapstructure:"last_name" yaml:"last_name"`
	Email     string `json:"email,omitempty" mapstructure:"email" yaml:"email"`
	Message   string `json:"message,omitempty" mapstructure:"message" yaml:"message"`
	Company   string `json:"company,omitempty" mapstructure:"company" yaml:"company"`
	Phone     string `json:"phone,omitempty" mapstructure:"phone" yaml:"phone"`
	Subject   string `json:"subject,omitempty" mapstructure:"subject" yaml:"subject"`
	// Unknown is submitted for any role the profile does not carry.
	Unknown string `json:"unknown,omitempty" mapstructure:"unknown" yaml:"unknown"`
	// Location is the submitter's locale (country or region code).
	Location string `json:"location,omitempty" mapstructure:"location" yaml:"location"`
}

// Target is the input of a single run: where to start and what to submit.
type Target struct {
	StartURL string `json:"startUrl"`
	Profile
}

// DefaultProfile returns the documented fallback value for every profile field.
func DefaultProfile() Profile {
	return Profile{
		Name:      "Newt",
		FirstName: "Newt",
		LastName:  "Scamander",
		Email:     "newxt@example.com",
		Message:   "Hello, do you have any wands?",
		Company:   "NewtComp",
		Phone:     "123456789098",
		Subject:   "Hello",
		Unknown:   "Unknown",
		Location:  "US",
	}
}

// Merge returns a copy of p where every non-empty field of overrides wins.
func (p Profile) Merge(overrides Profile) Profile {
	pick := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}
	return Profile{
		Name:      pick(p.Name, overrides.Name),
		FirstName: pick(p.FirstName, overrides.FirstName),
		LastName:  pick(p.LastName, overrides.LastName),
		Email:     pick(p.Email, overrides.Email),
		Message:   pick(p.Message, overrides.Message),
		Company:   pick(p.Company, overrides.Company),
		Phone:     pick(p.Phone, overrides.Phone),
		Subject:   pick(p.Subject, overrides.Subject),
		Unknown:   pick(p.Unknown, overrides.Unknown),
		Location:  pick(p.Location, overrides.Location),
	}
}

// Values exposes the profile as a role -> value map, the shape handed to the oracle.
func (p Profile) Values() map[string]string {
	return map[string]string{
		"name":       p.Name,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      p.Email,
		"message":    p.Message,
		"company":    p.Company,
		"phone":      p.Phone,
		"subject":    p.Subject,
		"unknown":    p.Unknown,
		"location":   p.Location,
	}
}

var roleSeparators = regexp.MustCompile(`[\s\-.]+`)

// roleAliases maps common oracle phrasings onto profile keys.
var roleAliases = map[string]string{
	"full_name":     "name",
	"fullname":      "name",
	"firstname":     "first_name",
	"given_name":    "first_name",
	"lastname":      "last_name",
	"surname":       "last_name",
	"family_name":   "last_name",
	"email_address": "email",
	"e_mail":        "email",
	"comment":       "message",
	"comments":      "message",
	"body":          "message",
	"inquiry":       "message",
	"organization":  "company",
	"organisation":  "company",
	"company_name":  "company",
	"phone_number":  "phone",
	"telephone":     "phone",
	"tel":           "phone",
	"topic":         "subject",
	"locale":        "location",
	"country":       "location",
	"region":        "location",
}

// NormalizeRole lowercases a role label and collapses separators to underscores.
func NormalizeRole(role string) string {
	r := roleSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(role)), "_")
	if alias, ok := roleAliases[r]; ok {
		return alias
	}
	return r
}

// Lookup resolves a semantic role against the profile. The second return is
// false when the role is unknown or the profile carries no value for it.
func (p Profile) Lookup(role string) (string, bool) {
	v, ok := p.Values()[NormalizeRole(role)]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
