package models

// Flash levels, matching the CSS classes used by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
