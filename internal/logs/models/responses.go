package models

type IngestResponse struct {
	Message string      `json:"message"`
	Company string      `json:"company"`
	Alert   AlertStatus `json:"alert"`
}

type SearchResponse struct {
	Logs  []*Record `json:"logs"`
	Count int       `json:"count"`
}
