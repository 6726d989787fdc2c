package hvp

// CreateInstanceRequest contains parameters for creating a content instance
type CreateInstanceRequest struct {
	Name   string `json:"name"`
	Course int64  `json:"course"`

	// UploadKey points at the staged package upload, if any.
	UploadKey string `json:"upload_key,omitempty"`
}

// UpdateInstanceRequest contains parameters for updating a content instance
type UpdateInstanceRequest struct {
	Instance  *ContentInstance
	UploadKey string
}
