// internal/notify/payload.go
package notify

import "time"

// ApplicationPayload describes one loan application event. It is constructed
// by the caller per event, rendered once and discarded; the notifier holds no
// application state of its own.
type ApplicationPayload struct {
	ApplicationID string    `json:"applicationId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	Amount        int64     `json:"amount"` // whole Rupiah, no decimals
	Purpose       string    `json:"purpose"`
	Status        Status    `json:"status"`
	SubmittedAt   time.Time `json:"submittedAt"`

	AdditionalDetails *AdditionalDetails `json:"additionalDetails,omitempty"`
}

// AdditionalDetails carries the optional long-form fields of an application.
// Each field renders only when non-empty.
type AdditionalDetails struct {
	Address           string `json:"address,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	Workplace         string `json:"workplace,omitempty"`
	CollateralType    string `json:"collateralType,omitempty"`
	CollateralAddress string `json:"collateralAddress,omitempty"`
}

// Empty reports whether no optional field is populated.
func (d *AdditionalDetails) Empty() bool {
	if d == nil {
		return true
	}
	return d.Address == "" && d.Occupation == "" && d.Workplace == "" &&
		d.CollateralType == "" && d.CollateralAddress == ""
}
