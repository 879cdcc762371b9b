package requests

// ProvisionPatient is the body of a provisioning call. StartStep lets an
// operator resume a partially completed run; prerequisites of the requested
// step are verified against the live stores before anything executes.
type ProvisionPatient struct {
	PatientID  string `json:"patient_id" validate:"required"`
	PracticeID string `json:"practice_id" validate:"omitempty,min=1"`
	StartStep  int    `json:"start_step" validate:"omitempty,gte=1,lte=6"`
}

func (r *ProvisionPatient) StartStepOrDefault() int {
	if r.StartStep == 0 {
		return 1
	}
	return r.StartStep
}
