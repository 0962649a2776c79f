package dtos

type VerificationRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type PostRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}
