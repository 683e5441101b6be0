package models

// Lead is the subject a flow runs for. The engine never mutates it.
type Lead struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
}

// TemplateData exposes the lead fields to email templates.
func (l *Lead) TemplateData() map[string]any {
	return map[string]any{
		"id":    l.ID,
		"email": l.Email,
		"name":  l.Name,
		"phone": l.Phone,
	}
}
