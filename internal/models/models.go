package models

// PromptResponse carries the answer produced for a query along with the
// documents it was grounded on.
type PromptResponse struct {
	Query   string `json:"query"`
	Source  string `json:"source"`
	Content string `json:"content"`
}
