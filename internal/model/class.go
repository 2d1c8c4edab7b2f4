package model

// Class represents a school class that homeworks are assigned to.
type Class struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	AdmissionYear int    `json:"admission_year"`
	MajorCode     string `json:"major_code"`
}
