package common

// ImportJob is the payload of a message asking for the import of a source file
type ImportJob struct {
	UUID       string `json:"uuid"`
	SourcePath string `json:"source_path,omitempty"`
	SourceURI  string `json:"source_uri,omitempty"`
	CachePath  string `json:"cache_path,omitempty"` // Optional, <workdir>/<uuid>.dat by default
}

// Result is the payload of the message published at the end of an import job
type Result struct {
	UUID      string  `json:"uuid"`
	Status    Status  `json:"status"`
	Message   string  `json:"message"`
	CachePath string  `json:"cache_path,omitempty"`
	Record    *Record `json:"record,omitempty"`
}

// ProgressMessage is the payload of the messages published during an import
type ProgressMessage struct {
	UUID         string  `json:"uuid"`
	Stages       int     `json:"stages"`
	CurrentStage int     `json:"current_stage"`
	Completion   float64 `json:"completion"`
	StageDesc    string  `json:"stage_desc"`
	Done         bool    `json:"done"`
}
