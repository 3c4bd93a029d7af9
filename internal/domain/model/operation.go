package model

// Video is a single generated video sample.
type Video struct {
	URI       string `json:"uri"`
	Encoding  string `json:"encoding"`
	SignedURI string `json:"signed_uri,omitempty"`
}

// OperationStatus is one observation of a Veo long-running operation.
// Videos is populated only once Done is true; a done operation with no
// samples is valid (the backend may filter everything out).
type OperationStatus struct {
	Name   string  `json:"name"`
	Done   bool    `json:"done"`
	Videos []Video `json:"videos,omitempty"`
}
