package models

// Template is a document template as listed by the templates service.
type Template struct {
	ID            string `json:"id"`
	Key           string `json:"key"`
	Title         string `json:"title,omitempty"`
	DocumentType  string `json:"documentType,omitempty"`
	AssignedState string `json:"assignedState,omitempty"`
	Language      string `json:"language,omitempty"`
	Content       string `json:"content,omitempty"`
	IsActive      *bool  `json:"isActive,omitempty"`
}

// IndexByKey maps template keys to templates. Later duplicates win.
func IndexByKey(list []Template) map[string]Template {
	out := make(map[string]Template, len(list))
	for _, t := range list {
		out[t.Key] = t
	}
	return out
}
