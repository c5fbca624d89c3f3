package messaging

// SendRequest is the request body for POST /sms-send.
type SendRequest struct {
	Body     string   `json:"body" validate:"required,max=1600"`
	To       []string `json:"to" validate:"required,min=1,max=100,dive,required"`
	MediaURL string   `json:"media_url,omitempty" validate:"omitempty,url"`
}
