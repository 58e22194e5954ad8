package request

// PairingCompleteRequest names the challenge either by pairing_id and code or
// by the deep_link rendered on the issuing device.
type PairingCompleteRequest struct {
	PairingID   string `json:"pairing_id" binding:"required_without=DeepLink"`
	Code        string `json:"code" binding:"required_without=DeepLink"`
	DeepLink    string `json:"deep_link" binding:"required_without=PairingID"`
	DeviceID    string `json:"device_id" binding:"required,max=255"`
	DeviceName  string `json:"device_name" binding:"max=255"`
	Platform    string `json:"platform" binding:"required,oneof=ios android macos windows linux web cli"`
	Fingerprint string `json:"fingerprint" binding:"max=128"`
}
