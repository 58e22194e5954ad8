package request

// No request carries a password. Clients send SRP values only, base64 encoded.

type RegisterStartRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

type RegisterFinishRequest struct {
	RegistrationID string `json:"registration_id" binding:"required"`
	Username       string `json:"username" binding:"required,max=64"`
	Verifier       []byte `json:"verifier" binding:"required"`
}

type LoginStartRequest struct {
	Username     string `json:"username" binding:"required,max=64"`
	ClientPublic []byte `json:"a" binding:"required"`
	DeviceID     string `json:"device_id" binding:"required,max=255"`
	DeviceName   string `json:"device_name" binding:"max=255"`
	Platform     string `json:"platform" binding:"required,oneof=ios android macos windows linux web cli"`
	Fingerprint  string `json:"fingerprint" binding:"max=128"`
}

type LoginFinishRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	Username    string `json:"username" binding:"required,max=64"`
	ClientProof []byte `json:"m1" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RevokeAllRequest struct {
	KeepCurrent bool `json:"keep_current"`
}
