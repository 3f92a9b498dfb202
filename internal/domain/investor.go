package domain

import "strings"

// Investor is the payload of a fundraising pipeline card.
type Investor struct {
	Name      string `json:"name"`
	Firm      string `json:"firm,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Website   string `json:"website,omitempty"`
	CheckSize string `json:"check_size,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (i Investor) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return required("name")
	}
	return nil
}

func (i Investor) Label() string {
	if i.Firm == "" {
		return i.Name
	}
	return i.Name + " (" + i.Firm + ")"
}
