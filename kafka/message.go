package kafka

// AnalysisMessage is the task record passed from the API to the worker. The
// video itself is spooled to shared storage; the message carries its path.
type AnalysisMessage struct {
	AnalysisID          string  `json:"analysis_id"`
	FilePath            string  `json:"file_path"`
	MartialArt          string  `json:"martial_art"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}
