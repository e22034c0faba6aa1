// Package types holds the data structures that cross the wire between the
// form service and the inference service. Keeping them in one place lets
// handlers, the inference client and the pipeline adapter share them without
// importing each other.
package types

// Transmission values accepted by both services.
const (
	TransmissionManual    = "Manual"
	TransmissionSemiAuto  = "Semi-Auto"
	TransmissionAutomatic = "Automatic"
)

// Transmissions lists the accepted transmission values in display order.
var Transmissions = []string{TransmissionManual, TransmissionSemiAuto, TransmissionAutomatic}

// PredictionRequest is the JSON body POSTed to the inference service.
//
// The numeric fields are pointers so that "required" means "present in the
// body" rather than "non-zero": a mileage of 0 is a valid car.
type PredictionRequest struct {
	Year         *int     `json:"year"         validate:"required"`
	EngineSize   *float64 `json:"engineSize"   validate:"required"`
	MPG          *float64 `json:"mpg"          validate:"required"`
	Mileage      *float64 `json:"mileage"      validate:"required"`
	Transmission string   `json:"transmission" validate:"required,oneof=Manual Semi-Auto Automatic"`
}

// NewPredictionRequest builds a fully populated request.
func NewPredictionRequest(year int, engineSize, mpg, mileage float64, transmission string) PredictionRequest {
	return PredictionRequest{
		Year:         &year,
		EngineSize:   &engineSize,
		MPG:          &mpg,
		Mileage:      &mileage,
		Transmission: transmission,
	}
}

// PredictionResponse is returned by POST /predict. Predictions holds either
// the predicted price or, when Success is false, the error message.
type PredictionResponse struct {
	Success     bool   `json:"success"`
	Predictions string `json:"predictions"`
}

// PredictionForm is the raw form body submitted to the form service, before
// any type coercion. Field names match the HTML input names. The "integer"
// and "float" rules accept whatever strconv parses, so ".5", "1e3" and
// "+2017" are valid.
type PredictionForm struct {
	Year         string `form:"year"         validate:"required,integer"`
	EngineSize   string `form:"engineSize"   validate:"required,float"`
	MPG          string `form:"mpg"          validate:"required,float"`
	Mileage      string `form:"mileage"      validate:"required,float"`
	Transmission string `form:"transmission" validate:"required,oneof=Manual Semi-Auto Automatic"`
}
