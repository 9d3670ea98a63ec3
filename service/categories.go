package service

import "github.com/ibreez3/lawbot/chat"

type ErrorCategory struct {
	Name      string `json:"name"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type ErrorCatalogResponse struct {
	Categories []ErrorCategory   `json:"categories"`
	Notes      map[string]string `json:"notes"`
}

// ErrorCatalog lists every failure category in the order failures are matched against them.
func ErrorCatalog() ErrorCatalogResponse {
	cats := make([]ErrorCategory, 0, len(chat.Categories()))
	for _, c := range chat.Categories() {
		cats = append(cats, ErrorCategory{Name: c.String(), Message: c.Text(), Retryable: c.Transient()})
	}
	notes := map[string]string{
		"no_choices": chat.NoChoicesText,
		"retries":    "transient failures are retried up to 3 times with 1s, 2s, 4s... backoff capped at 8s",
		"upstream":   "{message} is replaced by the error text returned by the API",
	}
	return ErrorCatalogResponse{Categories: cats, Notes: notes}
}
