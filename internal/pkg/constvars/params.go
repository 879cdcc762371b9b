package constvars

const (
	URLParamPatientID = "patient_id"
)

const (
	URLQueryParamStartStep     = "start_step"
	URLQueryParamIncludeShared = "include_shared"
)
