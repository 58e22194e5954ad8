package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/srp"
)

// Device describes the local installation to the server.
type Device struct {
	DeviceID    string
	Name        string
	Platform    string
	Fingerprint string
}

// Register runs the SRP registration. Only the verifier leaves the process.
func (c *Client) Register(ctx context.Context, username, password string) (*response.CredentialResponse, error) {
	if password == "" {
		return nil, ErrPasswordEmpty
	}
	username = entity.NormalizeUsername(username)

	var challenge response.RegisterChallengeResponse
	err := c.send(ctx, http.MethodPost, "/auth/pake/register/start", request.RegisterStartRequest{Username: username}, &challenge, false)
	if err != nil {
		return nil, err
	}
	if challenge.Algorithm != srp.Algorithm || challenge.Modulus != srp.ModulusHex() || challenge.Generator != srp.Generator() {
		return nil, fmt.Errorf("unsupported group %s", challenge.Algorithm)
	}

	x, err := srp.PrivateKey(challenge.KDF, username, password)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	var cred response.CredentialResponse
	err = c.send(ctx, http.MethodPost, "/auth/pake/register/finish", request.RegisterFinishRequest{
		RegistrationID: challenge.RegistrationID,
		Username:       username,
		Verifier:       srp.Verifier(x).Bytes(),
	}, &cred, false)
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Login proves knowledge of the password, checks the server proof and keeps
// the issued tokens. A server that cannot produce M2 is rejected even if it
// sent tokens.
func (c *Client) Login(ctx context.Context, username, password string, device Device) (*response.LoginResponse, error) {
	if password == "" {
		return nil, ErrPasswordEmpty
	}
	username = entity.NormalizeUsername(username)

	session, err := srp.NewClient()
	if err != nil {
		return nil, err
	}

	var challenge response.LoginChallengeResponse
	err = c.send(ctx, http.MethodPost, "/auth/pake/login/start", request.LoginStartRequest{
		Username:     username,
		ClientPublic: session.Public().Bytes(),
		DeviceID:     device.DeviceID,
		DeviceName:   device.Name,
		Platform:     device.Platform,
		Fingerprint:  device.Fingerprint,
	}, &challenge, false)
	if err != nil {
		return nil, err
	}

	x, err := srp.PrivateKey(challenge.KDF, username, password)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	m1, err := session.Proof(x, srp.Decode(challenge.ServerPublic))
	if err != nil {
		return nil, fmt.Errorf("computing proof: %w", err)
	}

	var resp response.LoginResponse
	err = c.send(ctx, http.MethodPost, "/auth/pake/login/finish", request.LoginFinishRequest{
		SessionID:   challenge.SessionID,
		Username:    username,
		ClientProof: m1,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	if !session.VerifyServer(resp.ServerProof) {
		return nil, ErrServerProof
	}

	c.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresAt)
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/auth/logout", nil, nil, true); err != nil {
		return err
	}
	c.SetTokens("", "")
	return nil
}

func (c *Client) Devices(ctx context.Context) ([]response.DeviceResponse, error) {
	var resp response.DeviceListResponse
	if err := c.do(ctx, http.MethodGet, "/auth/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

func (c *Client) RevokeDevice(ctx context.Context, id uuid.UUID) (*response.DeviceResponse, error) {
	var resp response.DeviceResponse
	if err := c.do(ctx, http.MethodPost, "/auth/devices/"+id.String()+"/revoke", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RevokeAll(ctx context.Context, keepCurrent bool) ([]response.DeviceResponse, error) {
	var resp response.RevokeAllResponse
	body := request.RevokeAllRequest{KeepCurrent: keepCurrent}
	if err := c.do(ctx, http.MethodPost, "/auth/devices/revoke-all", body, &resp); err != nil {
		return nil, err
	}
	return resp.Revoked, nil
}

func (c *Client) StartPairing(ctx context.Context) (*response.PairingStartResponse, error) {
	var resp response.PairingStartResponse
	if err := c.do(ctx, http.MethodPost, "/pairing/start", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompletePairing redeems either a deep link or a pairing id and code, and
// signs this client in as the new device.
func (c *Client) CompletePairing(ctx context.Context, deepLink, pairingID, code string, device Device) (*response.PairingCompleteResponse, error) {
	var resp response.PairingCompleteResponse
	err := c.send(ctx, http.MethodPost, "/pairing/complete", request.PairingCompleteRequest{
		PairingID:   pairingID,
		Code:        code,
		DeepLink:    deepLink,
		DeviceID:    device.DeviceID,
		DeviceName:  device.Name,
		Platform:    device.Platform,
		Fingerprint: device.Fingerprint,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	c.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresAt)
	return &resp, nil
}
