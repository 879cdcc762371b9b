package requests

// RemovePatient is the body of a removal call. IncludeShared extends the
// closure with the fixed shared set (practitioners, organizations,
// locations and their role links) once no other record depends on them.
type RemovePatient struct {
	PatientID     string `json:"patient_id" validate:"required"`
	PracticeID    string `json:"practice_id" validate:"omitempty,min=1"`
	IncludeShared bool   `json:"include_shared"`
}
