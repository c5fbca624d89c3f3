package topup

// CreateRequest is the owner-facing request body for a new top-up.
type CreateRequest struct {
	Credits int    `json:"credits" validate:"required,gt=0"`
	Note    string `json:"note,omitempty" validate:"max=500"`
}

// ResolveRequest is the admin-facing request body for resolving a top-up.
type ResolveRequest struct {
	Status    string `json:"status" validate:"required,topup_decision"`
	AdminNote string `json:"admin_note,omitempty" validate:"max=500"`
}
