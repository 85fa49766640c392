package models

type MessageResponse struct {
	Message string `json:"message"`
}

type PredictionResponse struct {
	Predictions []int `json:"predictions"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error,omitempty"`
}
