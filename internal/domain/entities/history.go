package entities

// UserRequestRecord is an accepted request from an individual
type UserRequestRecord struct {
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Aadhar        string `json:"aadhar,omitempty"`
	BloodRequired string `json:"blood_required"`
	Urgency       string `json:"urgency,omitempty"`
	QuantityUnits int    `json:"quantity_units,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Location      string `json:"location"`
	RequestDate   string `json:"request_date,omitempty"`
	AcceptedAt    string `json:"accepted_at,omitempty"`
}

// HospitalRequestRecord is an accepted request from a hospital
type HospitalRequestRecord struct {
	HospitalName  string `json:"hospital_name"`
	Location      string `json:"location"`
	Phone         string `json:"phone,omitempty"`
	BloodRequired string `json:"blood_required"`
	UnitsNeeded   int    `json:"units_needed,omitempty"`
	Urgency       string `json:"urgency,omitempty"`
	Department    string `json:"department,omitempty"`
	AcceptedAt    string `json:"accepted_at,omitempty"`
}

// DonorRecord is an accepted donation
type DonorRecord struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Aadhar       string `json:"aadhar,omitempty"`
	BloodGroup   string `json:"blood_group"`
	DonationTime string `json:"donation_time,omitempty"`
	Location     string `json:"location,omitempty"`
	Status       string `json:"status,omitempty"`
	AcceptedAt   string `json:"accepted_at,omitempty"`
}

// AcceptedHistory is the single aggregate record a blood bank keeps of
// everything it has accepted. It is always read and written as a whole.
type AcceptedHistory struct {
	AcceptedRequesterRecords []UserRequestRecord     `json:"accepted_users"`
	AcceptedFacilityRecords  []HospitalRequestRecord `json:"accepted_hospitals"`
	AcceptedDonorRecords     []DonorRecord           `json:"accepted_donors"`
}

// EmptyHistory returns an aggregate with non-nil lists so it serializes as
// empty arrays.
func EmptyHistory() *AcceptedHistory {
	return &AcceptedHistory{
		AcceptedRequesterRecords: []UserRequestRecord{},
		AcceptedFacilityRecords:  []HospitalRequestRecord{},
		AcceptedDonorRecords:     []DonorRecord{},
	}
}

// Normalize replaces nil lists with empty ones
func (h *AcceptedHistory) Normalize() *AcceptedHistory {
	if h.AcceptedRequesterRecords == nil {
		h.AcceptedRequesterRecords = []UserRequestRecord{}
	}
	if h.AcceptedFacilityRecords == nil {
		h.AcceptedFacilityRecords = []HospitalRequestRecord{}
	}
	if h.AcceptedDonorRecords == nil {
		h.AcceptedDonorRecords = []DonorRecord{}
	}
	return h
}
