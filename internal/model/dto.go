package model

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	Query string `json:"query" binding:"required"`
}

// PredictResponse pairs the routed domain with the generated answer.
type PredictResponse struct {
	Domain string `json:"domain"`
	Answer string `json:"answer"`
}
