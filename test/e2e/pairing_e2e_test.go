package e2e_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/api"
)

func requirePairingFailed(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "PAIRING_FAILED", apiErr.Code)
}

func TestE2E_Pairing_DeepLink(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup(t)
	ctx := context.Background()

	laptop := registerAndLogin(t, app, "alice", "laptop")

	challenge, err := laptop.StartPairing(ctx)
	require.NoError(t, err)
	assert.Len(t, challenge.Code, 8)
	assert.Contains(t, challenge.DeepLink, "focusdeck://pair")

	phone, _ := app.newClient()
	paired, err := phone.CompletePairing(ctx, challenge.DeepLink, "", "", testDevice("phone"))
	require.NoError(t, err)
	assert.Equal(t, "phone", paired.Device.DeviceID)
	assert.NotEmpty(t, paired.AccessToken)

	t.Run("paired device joins the account", func(t *testing.T) {
		devices, err := laptop.Devices(ctx)
		require.NoError(t, err)
		require.Len(t, devices, 2)

		ids := []string{devices[0].DeviceID, devices[1].DeviceID}
		assert.ElementsMatch(t, []string{"laptop", "phone"}, ids)
	})

	t.Run("paired device can sync", func(t *testing.T) {
		push, err := phone.Push(ctx, []request.PushChange{{
			ID:         uuid.New(),
			EntityType: "Task",
			EntityID:   "t1",
			Operation:  "create",
			Payload:    json.RawMessage(`{"title":"from phone"}`),
		}})
		require.NoError(t, err)
		require.Len(t, push.Accepted, 1)

		pull, err := laptop.Pull(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, pull.Changes, 1)
		assert.Equal(t, "t1", pull.Changes[0].EntityID)
	})

	t.Run("challenge is single use", func(t *testing.T) {
		other, _ := app.newClient()
		_, err := other.CompletePairing(ctx, challenge.DeepLink, "", "", testDevice("tablet"))
		requirePairingFailed(t, err)
	})
}

func TestE2E_Pairing_CodeEntry(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup(t)
	ctx := context.Background()

	laptop := registerAndLogin(t, app, "bob", "laptop")

	challenge, err := laptop.StartPairing(ctx)
	require.NoError(t, err)

	phone, _ := app.newClient()

	wrong := "00000000"
	if challenge.Code == wrong {
		wrong = "11111111"
	}
	_, err = phone.CompletePairing(ctx, "", challenge.PairingID, wrong, testDevice("phone"))
	requirePairingFailed(t, err)

	// A wrong guess under the attempt limit leaves the challenge usable.
	paired, err := phone.CompletePairing(ctx, "", challenge.PairingID, challenge.Code, testDevice("phone"))
	require.NoError(t, err)
	assert.Equal(t, "phone", paired.Device.DeviceID)

	devices, err := phone.Devices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestE2E_Pairing_AttemptLimit(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup(t)
	ctx := context.Background()

	laptop := registerAndLogin(t, app, "carol", "laptop")
	challenge, err := laptop.StartPairing(ctx)
	require.NoError(t, err)

	wrong := "00000000"
	if challenge.Code == wrong {
		wrong = "11111111"
	}

	phone, _ := app.newClient()
	for range 5 {
		_, err := phone.CompletePairing(ctx, "", challenge.PairingID, wrong, testDevice("phone"))
		requirePairingFailed(t, err)
	}

	_, err = phone.CompletePairing(ctx, "", challenge.PairingID, challenge.Code, testDevice("phone"))
	requirePairingFailed(t, err)
}

func TestE2E_Pairing_Failures(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup(t)
	ctx := context.Background()

	t.Run("start needs a session", func(t *testing.T) {
		client, _ := app.newClient()
		_, err := client.StartPairing(ctx)
		assert.ErrorIs(t, err, api.ErrNotSignedIn)

		resp, err := app.post("/pairing/start", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unknown pairing id", func(t *testing.T) {
		client, _ := app.newClient()
		_, err := client.CompletePairing(ctx, "", "does-not-exist", "12345678", testDevice("phone"))
		requirePairingFailed(t, err)
	})

	t.Run("malformed deep link", func(t *testing.T) {
		client, _ := app.newClient()
		_, err := client.CompletePairing(ctx, "https://example.com/pair", "", "", testDevice("phone"))
		requirePairingFailed(t, err)
	})
}
