package models

type MessageResponse struct {
	Message string `json:"message"`
}

type CompanyRegisteredResponse struct {
	Message   string `json:"message"`
	CompanyID string `json:"company_id"`
}
